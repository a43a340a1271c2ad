package bulk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hirewire/matchengine/internal/domain"
	"github.com/hirewire/matchengine/internal/matching"
	"github.com/hirewire/matchengine/internal/store"
)

func TestSweepScoresActiveJobs(t *testing.T) {
	mem := store.NewMemory()
	mem.PutJob(domain.Job{ID: "j1", RequiredSkills: []string{"Go"}, Active: true})
	mem.PutJob(domain.Job{ID: "j2", RequiredSkills: []string{"Rust"}, Active: true})
	mem.PutJob(domain.Job{ID: "inactive", RequiredSkills: []string{"Go"}, Active: false})
	mem.PutCandidate(domain.Candidate{ID: "c1", Skills: []string{"Go"}})

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	heuristic := matching.NewHeuristic()
	orchestrator := matching.NewOrchestrator(heuristic, heuristic, nil, mem, mem.Candidates(), logger)

	s := New(orchestrator, mem, time.Hour, logger)
	s.sweep(context.Background())

	summaries := logs.FilterMessage("bulk match sweep complete").All()
	require.Len(t, summaries, 1)
	fields := summaries[0].ContextMap()
	require.EqualValues(t, 2, fields["jobs"])
	require.EqualValues(t, 0, fields["failed"])

	scored := logs.FilterMessage("sweep scored job").All()
	require.Len(t, scored, 2)
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	mem := store.NewMemory()
	mem.PutJob(domain.Job{ID: "j1", Active: true})

	core, logs := observer.New(zap.DebugLevel)
	heuristic := matching.NewHeuristic()
	orchestrator := matching.NewOrchestrator(heuristic, heuristic, nil, mem, mem.Candidates(), zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(orchestrator, mem, time.Hour, zap.New(core))
	s.sweep(ctx)

	require.Empty(t, logs.FilterMessage("bulk match sweep complete").All())
}
