// Package store defines the narrow collaborator contracts the engine consumes
// for job and candidate data, with in-memory and Postgres implementations.
package store

import (
	"context"
	"errors"

	"github.com/hirewire/matchengine/internal/domain"
)

// ErrNotFound is returned when a job or candidate id does not exist.
var ErrNotFound = errors.New("not found")

// JobFilter narrows FindActive. Location matches by case-insensitive
// substring, EmploymentType by exact match. Zero values disable a filter.
type JobFilter struct {
	Location       string
	EmploymentType string
}

// JobStore provides read access to job postings.
type JobStore interface {
	FindByID(ctx context.Context, id string) (*domain.Job, error)
	FindActive(ctx context.Context, filter JobFilter) ([]domain.Job, error)
}

// CandidateStore provides read access to candidate profiles.
type CandidateStore interface {
	FindByID(ctx context.Context, id string) (*domain.Candidate, error)
	List(ctx context.Context) ([]domain.Candidate, error)
}

// ApplicationStore reports which jobs a candidate has applied to.
type ApplicationStore interface {
	JobIDsByCandidate(ctx context.Context, candidateID string) ([]string, error)
}

// SavedJobStore reports which jobs a candidate has saved.
type SavedJobStore interface {
	JobIDsByCandidate(ctx context.Context, candidateID string) ([]string, error)
}
