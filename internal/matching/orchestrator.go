package matching

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/cache"
	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/store"
)

// Orchestrator hides strategy selection and failure behind one entry point.
// The fallback chain is strictly sequential: the primary attempt finishes or
// fails before the heuristic runs, and a response is never blended from both.
//
// The two directions degrade differently, and deliberately so:
//   - job→candidates propagates an error when the fallback also fails, since
//     recruiters act on that result directly;
//   - candidate→jobs degrades to an empty recommendation list, since it only
//     feeds an advisory dashboard widget.
type Orchestrator struct {
	primary    Strategy
	heuristic  Strategy
	cache      cache.Cache
	jobs       store.JobStore
	candidates store.CandidateStore
	logger     *zap.Logger
}

// NewOrchestrator wires an orchestrator. primary may equal heuristic when no
// provider credential is configured; the fallback then collapses to a single
// attempt. The cache is the one the generative strategy writes through; it is
// only touched here to honor forceRefresh.
func NewOrchestrator(primary, heuristic Strategy, resultCache cache.Cache, jobs store.JobStore, candidates store.CandidateStore, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		primary:    primary,
		heuristic:  heuristic,
		cache:      resultCache,
		jobs:       jobs,
		candidates: candidates,
		logger:     logger,
	}
}

// Primary reports the currently selected primary strategy name.
func (o *Orchestrator) Primary() string { return o.primary.Name() }

// FindTopCandidates scores the candidate pool against one job. forceRefresh
// drops any cached entry first, so the primary strategy recomputes and writes
// a fresh one.
func (o *Orchestrator) FindTopCandidates(ctx context.Context, jobID string, forceRefresh bool) (*domain.MatchResult, error) {
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	pool, err := o.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	if forceRefresh && o.cache != nil {
		o.cache.Invalidate(ctx, jobID)
	}

	result, err := o.primary.TopCandidates(ctx, job, pool)
	if err == nil {
		return result, nil
	}
	if o.primary == o.heuristic {
		return nil, err
	}

	o.logFallback("find_top_candidates", err, zap.String("job_id", jobID))
	return o.heuristic.TopCandidates(ctx, job, pool)
}

// FindTopJobsForCandidate recommends jobs for one candidate. When both
// strategies fail the caller gets an empty list, not an error.
func (o *Orchestrator) FindTopJobsForCandidate(ctx context.Context, candidateID string) ([]domain.JobMatch, error) {
	candidate, err := o.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, err)
	}

	pool, err := o.jobs.FindActive(ctx, store.JobFilter{})
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}

	matches, err := o.primary.TopJobs(ctx, candidate, pool)
	if err == nil {
		return matches, nil
	}

	if o.primary != o.heuristic {
		o.logFallback("find_top_jobs", err, zap.String("candidate_id", candidateID))
		matches, err = o.heuristic.TopJobs(ctx, candidate, pool)
		if err == nil {
			return matches, nil
		}
	}

	o.logger.Warn("job recommendations degraded to empty list",
		zap.String("candidate_id", candidateID),
		zap.Error(err),
	)
	return []domain.JobMatch{}, nil
}

// QuickMatch always scores with the heuristic strategy, regardless of the
// primary selection. Callers use it when AI cost or latency is unacceptable.
func (o *Orchestrator) QuickMatch(ctx context.Context, jobID string) (*domain.MatchResult, error) {
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	pool, err := o.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	return o.heuristic.TopCandidates(ctx, job, pool)
}

func (o *Orchestrator) logFallback(op string, cause error, field zap.Field) {
	o.logger.Warn("primary strategy failed, falling back to heuristic",
		field,
		zap.String("operation", op),
		zap.String("primary", o.primary.Name()),
		zap.Error(cause),
	)
}
