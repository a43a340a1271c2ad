package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hirewire/matchengine/internal/domain"
)

// Heuristic is the deterministic skill-overlap strategy. It needs no external
// provider, no cache, and no configuration; it is always available and cheap
// enough to recompute on every call.
//
// A job skill counts as matched when it and some candidate skill contain each
// other as case-insensitive substrings, so "Node" matches "Node.js". The
// discovery scorer deliberately uses stricter exact matching; the two rules
// are independent and must stay that way.
type Heuristic struct {
	now func() time.Time
}

// NewHeuristic returns the skill-overlap strategy.
func NewHeuristic() *Heuristic {
	return &Heuristic{now: time.Now}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) TopCandidates(_ context.Context, job *domain.Job, pool []domain.Candidate) (*domain.MatchResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	matches := make([]domain.CandidateMatch, 0, len(pool))
	for _, cand := range pool {
		score, strengths := overlapScore(job.RequiredSkills, cand.Skills)
		matches = append(matches, domain.CandidateMatch{
			CandidateID: cand.ID,
			Name:        cand.Name,
			Score:       score,
			Analysis: fmt.Sprintf("Matches %d of %d required skills",
				len(strengths), len(job.RequiredSkills)),
			Strengths: strengths,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}

	return &domain.MatchResult{
		JobID:      job.ID,
		Matches:    matches,
		ComputedAt: h.now(),
	}, nil
}

func (h *Heuristic) TopJobs(_ context.Context, candidate *domain.Candidate, pool []domain.Job) ([]domain.JobMatch, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate is required")
	}

	matches := make([]domain.JobMatch, 0, len(pool))
	for _, job := range pool {
		score, strengths := overlapScore(job.RequiredSkills, candidate.Skills)
		matches = append(matches, domain.JobMatch{
			JobID:   job.ID,
			Title:   job.Title,
			Company: job.Company,
			Score:   score,
			Analysis: fmt.Sprintf("You match %d of %d required skills",
				len(strengths), len(job.RequiredSkills)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches, nil
}

// overlapScore counts required skills with a containment match in the
// candidate's skill list and scales to 0–100. An empty required list scores 0.
func overlapScore(required, candidateSkills []string) (int, []string) {
	if len(required) == 0 {
		return 0, nil
	}

	var matched []string
	for _, req := range required {
		for _, have := range candidateSkills {
			if skillsOverlap(req, have) {
				matched = append(matched, req)
				break
			}
		}
	}

	score := int(math.Round(float64(len(matched)) / float64(len(required)) * 100))
	return score, matched
}

func skillsOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
