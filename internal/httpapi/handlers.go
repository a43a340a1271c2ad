package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/discovery"
	"github.com/hirewire/matchengine/internal/store"
)

// FindCandidatesRequest asks for the top candidates for one job.
type FindCandidatesRequest struct {
	JobID        string `json:"jobId" validate:"required"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// QuickMatchRequest asks for an explicitly heuristic result.
type QuickMatchRequest struct {
	JobID string `json:"jobId" validate:"required"`
}

func (s *Server) handleFindCandidates(w http.ResponseWriter, r *http.Request) {
	var req FindCandidatesRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.orchestrator.FindTopCandidates(r.Context(), req.JobID, req.ForceRefresh)
	if err != nil {
		s.respondError(w, r, err, "find top candidates")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuickMatch(w http.ResponseWriter, r *http.Request) {
	var req QuickMatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.orchestrator.QuickMatch(r.Context(), req.JobID)
	if err != nil {
		s.respondError(w, r, err, "quick match")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleJobRecommendations(w http.ResponseWriter, r *http.Request) {
	candidateID := candidateIDFrom(r.Context())
	if candidateID == "" {
		writeError(w, http.StatusUnauthorized, "missing candidate identity")
		return
	}

	matches, err := s.orchestrator.FindTopJobsForCandidate(r.Context(), candidateID)
	if err != nil {
		s.respondError(w, r, err, "job recommendations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	candidateID := candidateIDFrom(r.Context())
	if candidateID == "" {
		writeError(w, http.StatusUnauthorized, "missing candidate identity")
		return
	}

	q := r.URL.Query()
	req := discovery.Request{
		Page:           intParam(q.Get("page"), 0),
		Limit:          intParam(q.Get("limit"), 0),
		Location:       q.Get("location"),
		EmploymentType: q.Get("type"),
		MinScore:       intParam(q.Get("minScore"), 0),
	}

	result, err := s.scorer.Discover(r.Context(), candidateID, req)
	if err != nil {
		s.respondError(w, r, err, "discover jobs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSkillGaps(w http.ResponseWriter, r *http.Request) {
	candidateID := candidateIDFrom(r.Context())
	if candidateID == "" {
		writeError(w, http.StatusUnauthorized, "missing candidate identity")
		return
	}

	report, err := s.gaps.Analyze(r.Context(), candidateID)
	if err != nil {
		s.respondError(w, r, err, "skill gap analysis")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"primary": s.orchestrator.Primary(),
	})
}

// decode unmarshals and validates a JSON request body, writing a 400 when
// either step fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "jobId is required")
		return false
	}
	return true
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("operation", op),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
		writeError(w, status, "internal error")
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		writeError(w, status, "not found")
		return
	}
	writeError(w, status, err.Error())
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
