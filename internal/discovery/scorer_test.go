package discovery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/store"
)

func scorerFixture(mem *store.Memory) *Scorer {
	return NewScorer(mem, mem.Candidates(), mem.Applications(), mem.SavedJobs(), zap.NewNop())
}

func TestDiscoverUnknownCandidate(t *testing.T) {
	s := scorerFixture(store.NewMemory())

	_, err := s.Discover(context.Background(), "missing", Request{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDiscoverExactMatchingAndWeights(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{
		ID:     "c1",
		Title:  "Frontend Developer",
		Skills: []string{"react", "express"},
	})
	// "react" matches case-insensitively; "Node.js" does NOT match "express"
	// or "react" because discovery demands exact equality, not substrings.
	mem.PutJob(domain.Job{
		ID:             "j1",
		Title:          "Data Engineer",
		RequiredSkills: []string{"React", "Node.js"},
		Active:         true,
	})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)

	rec := result.Jobs[0]
	// required: 1/2 * 100 * 0.7 = 35; preferred list empty: 50 * 0.3 = 15.
	assert.Equal(t, 50, rec.MatchScore)
	assert.Equal(t, []string{"React"}, rec.MatchedSkills)
	assert.Equal(t, []string{"Node.js"}, rec.MissingSkills)
	assert.Equal(t, []string{"react", "express"}, result.CandidateSkills)
}

func TestDiscoverExperienceBonusAndPenalty(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}, Experience: 10})
	mem.PutJob(domain.Job{ID: "surplus", RequiredSkills: []string{"Go"}, ExperienceYears: 8, Active: true})
	mem.PutJob(domain.Job{ID: "big-surplus", RequiredSkills: []string{"Go"}, Active: true})
	mem.PutJob(domain.Job{ID: "shortfall", RequiredSkills: []string{"Go"}, ExperienceYears: 12, Active: true})
	mem.PutJob(domain.Job{ID: "deep-shortfall", RequiredSkills: []string{"Go"}, ExperienceYears: 20, Active: true})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)

	scores := map[string]int{}
	for _, rec := range result.Jobs {
		scores[rec.JobID] = rec.MatchScore
	}
	// base = 100*0.7 + 50*0.3 = 85.
	assert.Equal(t, 89, scores["surplus"], "2 surplus years add 4")
	assert.Equal(t, 95, scores["big-surplus"], "bonus caps at 10")
	assert.Equal(t, 75, scores["shortfall"], "2 missing years cost 10")
	assert.Equal(t, 65, scores["deep-shortfall"], "penalty caps at 20")

	// Titles are empty on both sides, so none of these can be gems.
	assert.Equal(t, 0, result.HiddenGemCount)
}

func TestDiscoverScoreClamped(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}, Experience: 20})
	mem.PutJob(domain.Job{ID: "high", RequiredSkills: []string{"Go"}, PreferredSkills: []string{"Go"}, Active: true})
	mem.PutJob(domain.Job{ID: "low", RequiredSkills: []string{"Rust"}, PreferredSkills: []string{"C"}, ExperienceYears: 30, Active: true})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)

	for _, rec := range result.Jobs {
		assert.GreaterOrEqual(t, rec.MatchScore, 0)
		assert.LessOrEqual(t, rec.MatchScore, 100)
	}
}

func TestDiscoverHiddenGems(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{
		ID:     "c1",
		Title:  "Backend Engineer",
		Skills: []string{"Go", "Postgres"},
	})
	// High score, unrelated title: hidden gem.
	mem.PutJob(domain.Job{ID: "gem", Title: "Site Reliability Lead", RequiredSkills: []string{"Go", "Postgres"}, Active: true})
	// High score but the candidate's title is contained in the job title.
	mem.PutJob(domain.Job{ID: "obvious", Title: "Senior Backend Engineer", RequiredSkills: []string{"Go"}, Active: true})
	// Unrelated title but scores below the threshold.
	mem.PutJob(domain.Job{ID: "weak", Title: "Data Scientist", RequiredSkills: []string{"Python", "R", "Spark"}, Active: true})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)

	gems := map[string]bool{}
	for _, rec := range result.Jobs {
		gems[rec.JobID] = rec.HiddenGem
	}
	assert.True(t, gems["gem"])
	assert.False(t, gems["obvious"])
	assert.False(t, gems["weak"])
	assert.Equal(t, 1, result.HiddenGemCount)
}

func TestDiscoverOpenToWorkSuppressesGems(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Title: domain.OpenToWork, Skills: []string{"Go"}})
	mem.PutJob(domain.Job{ID: "j1", Title: "Platform Engineer", RequiredSkills: []string{"Go"}, Active: true})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)
	assert.False(t, result.Jobs[0].HiddenGem)
	assert.Equal(t, 0, result.HiddenGemCount)
}

func TestDiscoverMissingSkillsCapped(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}})
	mem.PutJob(domain.Job{
		ID:              "j1",
		RequiredSkills:  []string{"Rust", "C", "C++"},
		PreferredSkills: []string{"Zig", "Erlang", "Haskell", "OCaml"},
		Active:          true,
	})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 1)

	// Required gaps come first, then preferred, cut at five.
	assert.Equal(t, []string{"Rust", "C", "C++", "Zig", "Erlang"}, result.Jobs[0].MissingSkills)
}

func TestDiscoverMinScoreAndPagination(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}})
	for i := 0; i < 30; i++ {
		mem.PutJob(domain.Job{
			ID:             fmt.Sprintf("job-%02d", i),
			RequiredSkills: []string{"Go"},
			Active:         true,
		})
	}
	mem.PutJob(domain.Job{ID: "no-match", RequiredSkills: []string{"Rust"}, Active: true})

	s := scorerFixture(mem)
	ctx := context.Background()

	result, err := s.Discover(ctx, "c1", Request{MinScore: 50})
	require.NoError(t, err)
	assert.Len(t, result.Jobs, 12, "default page size")
	assert.Equal(t, 30, result.Pagination.Total, "no-match filtered out by minScore")
	assert.Equal(t, 3, result.Pagination.TotalPages)
	assert.Equal(t, 1, result.Pagination.Page)

	last, err := s.Discover(ctx, "c1", Request{MinScore: 50, Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Jobs, 6)

	past, err := s.Discover(ctx, "c1", Request{MinScore: 50, Page: 9})
	require.NoError(t, err)
	assert.Empty(t, past.Jobs)
	assert.Equal(t, 9, past.Pagination.Page)
}

func TestDiscoverStableOrderOnTies(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}})
	mem.PutJob(domain.Job{ID: "first", RequiredSkills: []string{"Go"}, Active: true})
	mem.PutJob(domain.Job{ID: "second", RequiredSkills: []string{"Go"}, Active: true})
	mem.PutJob(domain.Job{ID: "third", RequiredSkills: []string{"Go"}, Active: true})

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)
	require.Len(t, result.Jobs, 3)
	assert.Equal(t, "first", result.Jobs[0].JobID)
	assert.Equal(t, "second", result.Jobs[1].JobID)
	assert.Equal(t, "third", result.Jobs[2].JobID)
}

func TestDiscoverAppliedSavedFlags(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}})
	mem.PutJob(domain.Job{ID: "j1", RequiredSkills: []string{"Go"}, Active: true})
	mem.PutJob(domain.Job{ID: "j2", RequiredSkills: []string{"Go"}, Active: true})
	mem.AddApplication("c1", "j1")
	mem.AddSavedJob("c1", "j2")

	result, err := scorerFixture(mem).Discover(context.Background(), "c1", Request{})
	require.NoError(t, err)

	flags := map[string][2]bool{}
	for _, rec := range result.Jobs {
		flags[rec.JobID] = [2]bool{rec.Applied, rec.Saved}
	}
	assert.Equal(t, [2]bool{true, false}, flags["j1"])
	assert.Equal(t, [2]bool{false, true}, flags["j2"])
}

type failingAnnotations struct{}

func (failingAnnotations) JobIDsByCandidate(context.Context, string) ([]string, error) {
	return nil, errors.New("relation does not exist")
}

func TestDiscoverAnnotationFailureDegrades(t *testing.T) {
	mem := store.NewMemory()
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}})
	mem.PutJob(domain.Job{ID: "j1", RequiredSkills: []string{"Go"}, Active: true})

	s := NewScorer(mem, mem.Candidates(), failingAnnotations{}, failingAnnotations{}, zap.NewNop())

	result, err := s.Discover(context.Background(), "c1", Request{})
	require.NoError(t, err, "annotation stores are advisory")
	require.Len(t, result.Jobs, 1)
	assert.False(t, result.Jobs[0].Applied)
	assert.False(t, result.Jobs[0].Saved)
}
