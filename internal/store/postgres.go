package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirewire/matchengine/internal/domain"
)

// Postgres implements the collaborator contracts against the platform
// database. The engine only reads; the CRUD services own the schema.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a connection pool and verifies connectivity.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const jobColumns = `id, title, company, location, employment_type,
	required_skills, preferred_skills, experience_years, active, created_at`

func (p *Postgres) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job %s: %w", id, err)
	}
	return job, nil
}

func (p *Postgres) FindActive(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE active`
	args := make([]any, 0, 2)

	if loc := strings.TrimSpace(filter.Location); loc != "" {
		args = append(args, "%"+loc+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if filter.EmploymentType != "" {
		args = append(args, filter.EmploymentType)
		query += fmt.Sprintf(" AND employment_type = $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	err := row.Scan(&job.ID, &job.Title, &job.Company, &job.Location,
		&job.EmploymentType, &job.RequiredSkills, &job.PreferredSkills,
		&job.ExperienceYears, &job.Active, &job.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// PostgresCandidates implements CandidateStore on the same pool.
type PostgresCandidates struct {
	pool *pgxpool.Pool
}

// Candidates returns the CandidateStore view of the pool.
func (p *Postgres) Candidates() *PostgresCandidates {
	return &PostgresCandidates{pool: p.pool}
}

const candidateColumns = `id, name, skills,
	COALESCE(experience_years, 0), COALESCE(NULLIF(current_title, ''), '` + domain.OpenToWork + `'), bio`

func (c *PostgresCandidates) FindByID(ctx context.Context, id string) (*domain.Candidate, error) {
	row := c.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)

	var cand domain.Candidate
	err := row.Scan(&cand.ID, &cand.Name, &cand.Skills, &cand.Experience, &cand.Title, &cand.Bio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find candidate %s: %w", id, err)
	}
	return &cand, nil
}

func (c *PostgresCandidates) List(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var cand domain.Candidate
		if err := rows.Scan(&cand.ID, &cand.Name, &cand.Skills,
			&cand.Experience, &cand.Title, &cand.Bio); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

// PostgresApplications implements ApplicationStore.
type PostgresApplications struct {
	pool *pgxpool.Pool
}

// Applications returns the ApplicationStore view of the pool.
func (p *Postgres) Applications() *PostgresApplications {
	return &PostgresApplications{pool: p.pool}
}

func (a *PostgresApplications) JobIDsByCandidate(ctx context.Context, candidateID string) ([]string, error) {
	return queryJobIDs(ctx, a.pool,
		`SELECT job_id FROM applications WHERE candidate_id = $1`, candidateID)
}

// PostgresSavedJobs implements SavedJobStore.
type PostgresSavedJobs struct {
	pool *pgxpool.Pool
}

// SavedJobs returns the SavedJobStore view of the pool.
func (p *Postgres) SavedJobs() *PostgresSavedJobs {
	return &PostgresSavedJobs{pool: p.pool}
}

func (s *PostgresSavedJobs) JobIDsByCandidate(ctx context.Context, candidateID string) ([]string, error) {
	return queryJobIDs(ctx, s.pool,
		`SELECT job_id FROM saved_jobs WHERE candidate_id = $1`, candidateID)
}

func queryJobIDs(ctx context.Context, pool *pgxpool.Pool, query, candidateID string) ([]string, error) {
	rows, err := pool.Query(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("query job ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
