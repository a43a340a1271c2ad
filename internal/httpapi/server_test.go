package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/discovery"
	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/matching"
	"github.com/hirewire/matchengine/internal/store"
)

const testSecret = "test-secret"

func testServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	mem.PutJob(domain.Job{
		ID:             "j1",
		Title:          "Backend Engineer",
		RequiredSkills: []string{"Go", "Postgres"},
		Active:         true,
	})
	mem.PutCandidate(domain.Candidate{
		ID:     "c1",
		Name:   "Ada",
		Title:  "Software Engineer",
		Skills: []string{"Go", "Postgres"},
	})

	logger := zap.NewNop()
	heuristic := matching.NewHeuristic()
	orchestrator := matching.NewOrchestrator(heuristic, heuristic, nil, mem, mem.Candidates(), logger)
	scorer := discovery.NewScorer(mem, mem.Candidates(), mem.Applications(), mem.SavedJobs(), logger)
	gaps := discovery.NewGapAnalyzer(mem, mem.Candidates(), logger)

	return New(0, orchestrator, scorer, gaps, NewAuth(testSecret), logger), mem
}

func doRequest(t *testing.T, s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func candidateToken(t *testing.T, s *Server, candidateID string) string {
	t.Helper()
	token, err := s.auth.Sign(candidateID, time.Hour)
	require.NoError(t, err)
	return token
}

func TestFindCandidatesOK(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/matches/find-candidates", `{"jobId": "j1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var result domain.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "j1", result.JobID)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 100, result.Matches[0].Score)
}

func TestFindCandidatesValidation(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/matches/find-candidates", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "jobId is required"}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodPost, "/api/matches/find-candidates", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "invalid request body"}`, rec.Body.String())
}

func TestFindCandidatesUnknownJob(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/matches/find-candidates", `{"jobId": "nope"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "not found"}`, rec.Body.String())
}

func TestQuickMatchOK(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/matches/quick-match", `{"jobId": "j1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "c1", result.Matches[0].CandidateID)
}

func TestDiscoverRequiresAuth(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/discover", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "missing candidate identity"}`, rec.Body.String())

	rec = doRequest(t, s, http.MethodGet, "/api/jobs/discover", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "invalid token"}`, rec.Body.String())
}

func TestDiscoverOK(t *testing.T) {
	s, _ := testServer(t)
	token := candidateToken(t, s, "c1")

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/discover?minScore=50&limit=5", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var result discovery.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "j1", result.Jobs[0].JobID)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, 5, result.Pagination.Limit)
	assert.True(t, result.Jobs[0].HiddenGem, "unrelated title with a full skill match")
}

func TestDiscoverUnknownCandidate(t *testing.T) {
	s, _ := testServer(t)
	token := candidateToken(t, s, "ghost")

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/discover", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSkillGapsOK(t *testing.T) {
	s, mem := testServer(t)
	mem.PutJob(domain.Job{
		ID:             "j2",
		Title:          "Platform Engineer",
		RequiredSkills: []string{"Go", "Kubernetes"},
		Active:         true,
	})
	token := candidateToken(t, s, "c1")

	rec := doRequest(t, s, http.MethodGet, "/api/candidates/skill-gaps", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var report discovery.GapReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, "Kubernetes", report.Gaps[0].Skill)
	assert.Equal(t, 2, report.MatchableJobs)
}

func TestJobRecommendationsOK(t *testing.T) {
	s, _ := testServer(t)
	token := candidateToken(t, s, "c1")

	rec := doRequest(t, s, http.MethodGet, "/api/candidates/job-matches", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matches []domain.JobMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Matches, 1)
	assert.Equal(t, "j1", body.Matches[0].JobID)
	assert.Equal(t, 100, body.Matches[0].Score)
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "primary": "heuristic"}`, rec.Body.String())
}

func TestExpiredTokenRejected(t *testing.T) {
	s, _ := testServer(t)
	token, err := s.auth.Sign("c1", -time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/discover", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
