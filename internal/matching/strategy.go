// Package matching implements the scoring strategies and the orchestrator
// that selects between them and degrades gracefully.
package matching

import (
	"context"

	"github.com/hirewire/matchengine/internal/domain"
)

// maxMatches caps every strategy's output in both directions.
const maxMatches = 3

// Strategy scores one job against a candidate pool and one candidate against
// a job pool. Both directions return at most three entries ordered by
// descending score; ties keep input order. A response is entirely one
// strategy's work: scores from different strategies are never comparable and
// must never be blended.
type Strategy interface {
	Name() string
	TopCandidates(ctx context.Context, job *domain.Job, pool []domain.Candidate) (*domain.MatchResult, error)
	TopJobs(ctx context.Context, candidate *domain.Candidate, pool []domain.Job) ([]domain.JobMatch, error)
}
