package store

import (
	"context"
	"strings"
	"sync"

	"github.com/hirewire/matchengine/internal/domain"
)

// Memory is an in-process store backing tests and standalone runs. It
// implements every collaborator contract in this package.
type Memory struct {
	mu         sync.RWMutex
	jobs       map[string]domain.Job
	jobOrder   []string
	candidates map[string]domain.Candidate
	candOrder  []string
	applied    map[string][]string
	saved      map[string][]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:       make(map[string]domain.Job),
		candidates: make(map[string]domain.Candidate),
		applied:    make(map[string][]string),
		saved:      make(map[string][]string),
	}
}

// PutJob inserts or replaces a job.
func (m *Memory) PutJob(job domain.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		m.jobOrder = append(m.jobOrder, job.ID)
	}
	m.jobs[job.ID] = job
}

// PutCandidate inserts or replaces a candidate.
func (m *Memory) PutCandidate(c domain.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.ID]; !ok {
		m.candOrder = append(m.candOrder, c.ID)
	}
	m.candidates[c.ID] = c
}

// AddApplication records that a candidate applied to a job.
func (m *Memory) AddApplication(candidateID, jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied[candidateID] = append(m.applied[candidateID], jobID)
}

// AddSavedJob records that a candidate saved a job.
func (m *Memory) AddSavedJob(candidateID, jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[candidateID] = append(m.saved[candidateID], jobID)
}

func (m *Memory) FindByID(_ context.Context, id string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (m *Memory) FindActive(_ context.Context, filter JobFilter) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	location := strings.ToLower(strings.TrimSpace(filter.Location))
	out := make([]domain.Job, 0, len(m.jobOrder))
	for _, id := range m.jobOrder {
		job := m.jobs[id]
		if !job.Active {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(job.Location), location) {
			continue
		}
		if filter.EmploymentType != "" && job.EmploymentType != filter.EmploymentType {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

// Candidates returns a CandidateStore view of the memory store. FindByID on
// Memory itself resolves jobs, so the candidate contract needs its own
// receiver type.
func (m *Memory) Candidates() *MemoryCandidates { return &MemoryCandidates{m} }

// Applications returns the ApplicationStore view.
func (m *Memory) Applications() *MemoryApplications { return &MemoryApplications{m} }

// SavedJobs returns the SavedJobStore view.
func (m *Memory) SavedJobs() *MemorySavedJobs { return &MemorySavedJobs{m} }

// MemoryCandidates adapts Memory to the CandidateStore contract.
type MemoryCandidates struct{ m *Memory }

func (s *MemoryCandidates) FindByID(_ context.Context, id string) (*domain.Candidate, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	c, ok := s.m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryCandidates) List(_ context.Context) ([]domain.Candidate, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]domain.Candidate, 0, len(s.m.candOrder))
	for _, id := range s.m.candOrder {
		out = append(out, s.m.candidates[id])
	}
	return out, nil
}

// MemoryApplications adapts Memory to the ApplicationStore contract.
type MemoryApplications struct{ m *Memory }

func (s *MemoryApplications) JobIDsByCandidate(_ context.Context, candidateID string) ([]string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return append([]string(nil), s.m.applied[candidateID]...), nil
}

// MemorySavedJobs adapts Memory to the SavedJobStore contract.
type MemorySavedJobs struct{ m *Memory }

func (s *MemorySavedJobs) JobIDsByCandidate(_ context.Context, candidateID string) ([]string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return append([]string(nil), s.m.saved[candidateID]...), nil
}
