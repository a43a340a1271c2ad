// Package httpapi exposes the matching engine over HTTP. The route surface is
// deliberately small: two recruiter-facing matching endpoints and two
// candidate-facing discovery endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/discovery"
	"github.com/hirewire/matchengine/internal/matching"
)

// Server serves the engine's HTTP API.
type Server struct {
	orchestrator *matching.Orchestrator
	scorer       *discovery.Scorer
	gaps         *discovery.GapAnalyzer
	auth         *Auth
	validate     *validator.Validate
	logger       *zap.Logger

	httpServer *http.Server
}

// New wires the server. All dependencies are mandatory.
func New(port int, orchestrator *matching.Orchestrator, scorer *discovery.Scorer, gaps *discovery.GapAnalyzer, auth *Auth, logger *zap.Logger) *Server {
	s := &Server{
		orchestrator: orchestrator,
		scorer:       scorer,
		gaps:         gaps,
		auth:         auth,
		validate:     validator.New(),
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/matches/find-candidates", s.handleFindCandidates)
	mux.HandleFunc("POST /api/matches/quick-match", s.handleQuickMatch)
	mux.HandleFunc("GET /api/candidates/job-matches", s.requireCandidate(s.handleJobRecommendations))
	mux.HandleFunc("GET /api/jobs/discover", s.requireCandidate(s.handleDiscover))
	mux.HandleFunc("GET /api/candidates/skill-gaps", s.requireCandidate(s.handleSkillGaps))
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.withRequestID(s.withLogging(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	s.logger.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
