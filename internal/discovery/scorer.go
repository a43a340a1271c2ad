// Package discovery implements the synchronous, AI-independent scoring pass
// that ranks every active job for one candidate, plus the skill-gap analyzer.
package discovery

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/store"
)

const (
	requiredWeight  = 0.7
	preferredWeight = 0.3
	// neutralScore stands in for the required or preferred component when a
	// job lists no skills of that kind.
	neutralScore = 50.0

	hiddenGemThreshold = 65
	maxMissingSkills   = 5

	defaultLimit = 12
)

// Request carries the caller-supplied discovery parameters.
type Request struct {
	Page           int
	Limit          int
	Location       string
	EmploymentType string
	MinScore       int
}

// Result is one discovery response: the requested page plus metadata
// computed over the full filtered set.
type Result struct {
	Jobs            []domain.DiscoveryRecord `json:"jobs"`
	Pagination      domain.Pagination        `json:"pagination"`
	CandidateSkills []string                 `json:"candidateSkills"`
	HiddenGemCount  int                      `json:"hiddenGemCount"`
}

// Scorer ranks active jobs for a candidate. Scoring is deterministic and
// purely local: skills match exactly (case-insensitive), unlike the heuristic
// strategy's substring rule. The divergence is intentional and load-bearing;
// do not unify the two.
type Scorer struct {
	jobs         store.JobStore
	candidates   store.CandidateStore
	applications store.ApplicationStore
	savedJobs    store.SavedJobStore
	logger       *zap.Logger
}

// NewScorer wires a discovery scorer. Application and saved-job stores are
// annotation-only; their failures degrade to empty sets.
func NewScorer(jobs store.JobStore, candidates store.CandidateStore, applications store.ApplicationStore, savedJobs store.SavedJobStore, logger *zap.Logger) *Scorer {
	return &Scorer{
		jobs:         jobs,
		candidates:   candidates,
		applications: applications,
		savedJobs:    savedJobs,
		logger:       logger,
	}
}

// Discover scores all active jobs matching the request filters for one
// candidate, then filters by MinScore, sorts, and paginates.
func (s *Scorer) Discover(ctx context.Context, candidateID string, req Request) (*Result, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobs.FindActive(ctx, store.JobFilter{
		Location:       req.Location,
		EmploymentType: req.EmploymentType,
	})
	if err != nil {
		return nil, err
	}

	applied, saved := s.annotationSets(ctx, candidateID)
	candSet, candSkills := normalizeSkills(candidate.Skills)

	records := make([]domain.DiscoveryRecord, 0, len(jobs))
	for _, job := range jobs {
		rec := scoreJob(candidate, candSet, job)
		rec.Applied = applied[job.ID]
		rec.Saved = saved[job.ID]
		if rec.MatchScore < req.MinScore {
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MatchScore > records[j].MatchScore
	})

	hiddenGems := 0
	for _, rec := range records {
		if rec.HiddenGem {
			hiddenGems++
		}
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}

	total := len(records)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &Result{
		Jobs: records[start:end],
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
		CandidateSkills: candSkills,
		HiddenGemCount:  hiddenGems,
	}, nil
}

// annotationSets fetches the candidate's applied and saved job ids
// concurrently. Either collaborator failing yields an empty set so scoring
// proceeds; losing a checkmark beats failing the whole request.
func (s *Scorer) annotationSets(ctx context.Context, candidateID string) (applied, saved map[string]bool) {
	applied = map[string]bool{}
	saved = map[string]bool{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.applications.JobIDsByCandidate(gctx, candidateID)
		if err != nil {
			s.logger.Warn("application lookup failed, flags default to false",
				zap.String("candidate_id", candidateID), zap.Error(err))
			return nil
		}
		for _, id := range ids {
			applied[id] = true
		}
		return nil
	})
	g.Go(func() error {
		ids, err := s.savedJobs.JobIDsByCandidate(gctx, candidateID)
		if err != nil {
			s.logger.Warn("saved-job lookup failed, flags default to false",
				zap.String("candidate_id", candidateID), zap.Error(err))
			return nil
		}
		for _, id := range ids {
			saved[id] = true
		}
		return nil
	})
	_ = g.Wait()
	return applied, saved
}

func scoreJob(candidate *domain.Candidate, candSet map[string]bool, job domain.Job) domain.DiscoveryRecord {
	matchedReq, missingReq := splitSkills(job.RequiredSkills, candSet)
	matchedPref, missingPref := splitSkills(job.PreferredSkills, candSet)

	requiredScore := componentScore(len(matchedReq), len(job.RequiredSkills)) * requiredWeight
	preferredScore := componentScore(len(matchedPref), len(job.PreferredSkills)) * preferredWeight
	matchScore := int(math.Round(requiredScore + preferredScore))

	// Surplus experience earns a small bonus; a shortfall is penalized
	// two and a half times as fast.
	expDiff := candidate.Experience - job.ExperienceYears
	var bonus int
	if expDiff >= 0 {
		bonus = min(expDiff*2, 10)
	} else {
		bonus = max(expDiff*5, -20)
	}

	finalScore := matchScore + bonus
	if finalScore < 0 {
		finalScore = 0
	}
	if finalScore > 100 {
		finalScore = 100
	}

	missing := dedupeSkills(append(append([]string{}, missingReq...), missingPref...))
	if len(missing) > maxMissingSkills {
		missing = missing[:maxMissingSkills]
	}

	return domain.DiscoveryRecord{
		JobID:          job.ID,
		Title:          job.Title,
		Company:        job.Company,
		Location:       job.Location,
		EmploymentType: job.EmploymentType,
		MatchScore:     finalScore,
		HiddenGem:      isHiddenGem(finalScore, job.Title, candidate.Title),
		MatchedSkills:  dedupeSkills(append(append([]string{}, matchedReq...), matchedPref...)),
		MissingSkills:  missing,
		PostedAt:       job.CreatedAt,
	}
}

func componentScore(matched, listed int) float64 {
	if listed == 0 {
		return neutralScore
	}
	return float64(matched) / float64(listed) * 100
}

// isHiddenGem marks a well-scoring job whose title a naive keyword search on
// the candidate's current title would never surface.
func isHiddenGem(score int, jobTitle, candidateTitle string) bool {
	if score < hiddenGemThreshold {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(candidateTitle), domain.OpenToWork) {
		return false
	}
	jt := strings.ToLower(strings.TrimSpace(jobTitle))
	ct := strings.ToLower(strings.TrimSpace(candidateTitle))
	if jt == "" || ct == "" {
		return false
	}
	return !strings.Contains(jt, ct) && !strings.Contains(ct, jt)
}

func splitSkills(skills []string, candSet map[string]bool) (matched, missing []string) {
	for _, skill := range skills {
		if candSet[normalizeSkill(skill)] {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	return matched, missing
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeSkills(skills []string) (map[string]bool, []string) {
	set := make(map[string]bool, len(skills))
	normalized := make([]string, 0, len(skills))
	for _, s := range skills {
		n := normalizeSkill(s)
		if n == "" || set[n] {
			continue
		}
		set[n] = true
		normalized = append(normalized, n)
	}
	return set, normalized
}

func dedupeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		n := normalizeSkill(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, s)
	}
	return out
}
