package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crewhq/marketing-crew/internal/jobs"
)

// Store is the Postgres-backed job store shared by server and worker.
type Store struct {
	db *sql.DB
}

// NewStore creates a new database store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const jobColumns = `id, domain, description, state, progress_stage, progress_percent,
		result, error_kind, error_message, error_trace, log, created_at, updated_at`

// Create inserts a new job.
func (s *Store) Create(job *jobs.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	stage, percent := progressColumns(job)
	kind, message, trace := errorColumns(job)

	_, err := s.db.Exec(query,
		job.ID, job.Domain, job.Description, job.State, stage, percent,
		job.Result, kind, message, trace, job.Log, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *Store) Get(id string) (*jobs.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jobs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Update persists the current fields of an existing job.
func (s *Store) Update(job *jobs.Job) error {
	query := `
		UPDATE jobs
		SET state = $2, progress_stage = $3, progress_percent = $4,
		    result = $5, error_kind = $6, error_message = $7, error_trace = $8,
		    log = $9, updated_at = $10
		WHERE id = $1
	`

	stage, percent := progressColumns(job)
	kind, message, trace := errorColumns(job)
	job.UpdatedAt = time.Now()

	_, err := s.db.Exec(query,
		job.ID, job.State, stage, percent,
		job.Result, kind, message, trace, job.Log, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// ClaimPending atomically claims the oldest pending job. SELECT FOR UPDATE
// SKIP LOCKED keeps concurrent workers from double-running a job.
func (s *Store) ClaimPending() (*jobs.Job, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE state = 'PENDING'
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	job, err := scanJob(tx.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // nothing to claim
		}
		return nil, fmt.Errorf("failed to claim pending job: %w", err)
	}

	job.State = jobs.StateStarted
	job.UpdatedAt = time.Now()

	updateQuery := `UPDATE jobs SET state = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.Exec(updateQuery, job.ID, job.State, job.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to mark job as started: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return job, nil
}

// List retrieves all jobs, most recent first.
func (s *Store) List() ([]*jobs.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var all []*jobs.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		all = append(all, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return all, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*jobs.Job, error) {
	job := &jobs.Job{}
	var stage sql.NullString
	var percent sql.NullFloat64
	var kind, message, trace sql.NullString

	err := row.Scan(
		&job.ID, &job.Domain, &job.Description, &job.State, &stage, &percent,
		&job.Result, &kind, &message, &trace, &job.Log, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if stage.Valid {
		job.Progress = &jobs.Progress{Stage: stage.String, Percent: percent.Float64}
	}
	if kind.Valid || message.Valid {
		job.Error = &jobs.Error{Kind: kind.String, Message: message.String, Trace: trace.String}
	}
	return job, nil
}

func progressColumns(job *jobs.Job) (stage sql.NullString, percent sql.NullFloat64) {
	if job.Progress != nil {
		stage = sql.NullString{String: job.Progress.Stage, Valid: true}
		percent = sql.NullFloat64{Float64: job.Progress.Percent, Valid: true}
	}
	return stage, percent
}

func errorColumns(job *jobs.Job) (kind, message, trace sql.NullString) {
	if job.Error != nil {
		kind = sql.NullString{String: job.Error.Kind, Valid: true}
		message = sql.NullString{String: job.Error.Message, Valid: true}
		trace = sql.NullString{String: job.Error.Trace, Valid: true}
	}
	return kind, message, trace
}
