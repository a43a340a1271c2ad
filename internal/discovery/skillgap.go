package discovery

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/store"
)

const (
	maxGaps        = 8
	maxExampleJobs = 3

	highImpactDemand   = 5
	mediumImpactDemand = 3
)

// GapReport aggregates unmet skill demand across active jobs for one
// candidate.
type GapReport struct {
	Gaps []domain.SkillGap `json:"skillGaps"`
	// MatchableJobs counts active jobs whose required skills intersect the
	// candidate's skill set at all. Binary, not scored.
	MatchableJobs int `json:"matchableJobs"`
}

// GapAnalyzer identifies which missing skills unlock the most active jobs.
type GapAnalyzer struct {
	jobs       store.JobStore
	candidates store.CandidateStore
	logger     *zap.Logger
}

// NewGapAnalyzer wires a skill-gap analyzer.
func NewGapAnalyzer(jobs store.JobStore, candidates store.CandidateStore, logger *zap.Logger) *GapAnalyzer {
	return &GapAnalyzer{jobs: jobs, candidates: candidates, logger: logger}
}

type gapAgg struct {
	skill    string
	demand   int
	examples []string
}

// Analyze counts, per skill absent from the candidate's profile, how many
// active jobs demand it, keeping up to three example titles in first-seen
// order. The top eight by demand are returned.
func (a *GapAnalyzer) Analyze(ctx context.Context, candidateID string) (*GapReport, error) {
	candidate, err := a.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	jobs, err := a.jobs.FindActive(ctx, store.JobFilter{})
	if err != nil {
		return nil, err
	}

	candSet, _ := normalizeSkills(candidate.Skills)

	byKey := make(map[string]*gapAgg)
	var order []*gapAgg
	matchable := 0

	for _, job := range jobs {
		for _, skill := range job.RequiredSkills {
			if candSet[normalizeSkill(skill)] {
				matchable++
				break
			}
		}

		// A skill listed as both required and preferred on one job still
		// counts that job's demand once.
		seen := make(map[string]bool)
		for _, skill := range append(append([]string{}, job.RequiredSkills...), job.PreferredSkills...) {
			key := normalizeSkill(skill)
			if key == "" || candSet[key] || seen[key] {
				continue
			}
			seen[key] = true

			agg, ok := byKey[key]
			if !ok {
				agg = &gapAgg{skill: skill}
				byKey[key] = agg
				order = append(order, agg)
			}
			agg.demand++
			if len(agg.examples) < maxExampleJobs {
				agg.examples = append(agg.examples, job.Title)
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].demand > order[j].demand
	})
	if len(order) > maxGaps {
		order = order[:maxGaps]
	}

	gaps := make([]domain.SkillGap, 0, len(order))
	for _, agg := range order {
		gaps = append(gaps, domain.SkillGap{
			Skill:       agg.skill,
			Demand:      agg.demand,
			Impact:      classifyImpact(agg.demand),
			ExampleJobs: agg.examples,
		})
	}

	a.logger.Debug("skill gap analysis complete",
		zap.String("candidate_id", candidateID),
		zap.Int("distinct_gaps", len(byKey)),
		zap.Int("matchable_jobs", matchable),
	)

	return &GapReport{Gaps: gaps, MatchableJobs: matchable}, nil
}

func classifyImpact(demand int) string {
	switch {
	case demand >= highImpactDemand:
		return "high"
	case demand >= mediumImpactDemand:
		return "medium"
	default:
		return "low"
	}
}
