// Package bulk runs the periodic quick-match sweep: a heuristic-only scoring
// pass over every active job, for callers that want fresh match data without
// paying AI cost or latency per job.
package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/matching"
	"github.com/hirewire/matchengine/internal/store"
)

// Sweeper wraps robfig/cron around the orchestrator's QuickMatch bypass.
type Sweeper struct {
	cron         *cron.Cron
	orchestrator *matching.Orchestrator
	jobs         store.JobStore
	spec         string
	logger       *zap.Logger
}

// New creates a Sweeper firing every interval.
func New(orchestrator *matching.Orchestrator, jobs store.JobStore, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:         cron.New(),
		orchestrator: orchestrator,
		jobs:         jobs,
		spec:         fmt.Sprintf("@every %s", interval),
		logger:       logger,
	}
}

// Start registers the sweep and starts the scheduler. One sweep runs
// immediately so match data exists before the first tick.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("register sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("bulk match sweeper started", zap.String("spec", s.spec))

	go s.sweep(ctx)
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("bulk match sweeper stopped")
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()

	jobs, err := s.jobs.FindActive(ctx, store.JobFilter{})
	if err != nil {
		s.logger.Error("sweep aborted, active job listing failed", zap.Error(err))
		return
	}

	failed := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		result, err := s.orchestrator.QuickMatch(ctx, job.ID)
		if err != nil {
			failed++
			s.logger.Warn("quick match failed during sweep",
				zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		if len(result.Matches) > 0 {
			s.logger.Debug("sweep scored job",
				zap.String("job_id", job.ID),
				zap.String("top_candidate", result.Matches[0].CandidateID),
				zap.Int("top_score", result.Matches[0].Score),
			)
		}
	}

	s.logger.Info("bulk match sweep complete",
		zap.Int("jobs", len(jobs)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
}
