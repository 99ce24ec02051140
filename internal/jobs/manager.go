package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crewhq/marketing-crew/internal/logger"
	"github.com/crewhq/marketing-crew/internal/metrics"
)

// Manager handles job creation and lifecycle transitions on top of a Store.
// It is the only writer of job state; observers read snapshots through Get.
type Manager struct {
	store Store
}

// NewManager creates a new job manager.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Submit creates a new job in PENDING state and persists it.
func (m *Manager) Submit(domain, description string) (*Job, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}

	job := &Job{
		ID:          uuid.New().String(),
		Domain:      domain,
		Description: description,
		State:       StatePending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := m.store.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	metrics.JobsSubmittedTotal.Inc()
	log := logger.WithJobID(job.ID)
	log.Info().Str("domain", job.Domain).Msg("Job submitted")
	return job, nil
}

// Get retrieves a job snapshot by ID.
func (m *Manager) Get(id string) (*Job, error) {
	return m.store.Get(id)
}

// List returns all jobs known to the store.
func (m *Manager) List() ([]*Job, error) {
	return m.store.List()
}

// ClaimPending hands the oldest claimable job to a worker.
func (m *Manager) ClaimPending() (*Job, error) {
	return m.store.ClaimPending()
}

// UpdateProgress records a stage checkpoint and moves the job to PROGRESS.
func (m *Manager) UpdateProgress(job *Job, stage string, percent float64) error {
	if err := m.guardTransition(job, StateProgress); err != nil {
		return err
	}

	job.State = StateProgress
	job.Progress = &Progress{Stage: stage, Percent: percent}
	job.UpdatedAt = time.Now()

	if err := m.store.Update(job); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	log := logger.WithJobID(job.ID)
	log.Debug().Str("stage", stage).Float64("percent", percent).Msg("Job progress")
	return nil
}

// Complete marks a job as SUCCESS and attaches the pipeline output.
func (m *Manager) Complete(job *Job, result string) error {
	if err := m.guardTransition(job, StateSuccess); err != nil {
		return err
	}

	job.State = StateSuccess
	job.Result = result
	job.UpdatedAt = time.Now()

	if err := m.store.Update(job); err != nil {
		return fmt.Errorf("failed to update job as completed: %w", err)
	}

	metrics.JobsCompletedTotal.Inc()
	log := logger.WithJobID(job.ID)
	log.Info().Msg("Job completed successfully")
	return nil
}

// Fail marks a job as FAILURE, capturing the error kind, message and trace.
// There is no retry at this layer: a failed job stays failed.
func (m *Manager) Fail(job *Job, jobErr Error) error {
	if err := m.guardTransition(job, StateFailure); err != nil {
		return err
	}

	job.State = StateFailure
	job.Error = &jobErr
	job.UpdatedAt = time.Now()

	if err := m.store.Update(job); err != nil {
		return fmt.Errorf("failed to update failed job: %w", err)
	}

	metrics.JobsFailedTotal.Inc()
	log := logger.WithJobID(job.ID)
	log.Error().Str("kind", jobErr.Kind).Str("message", jobErr.Message).Msg("Job failed")
	return nil
}

// guardTransition rejects transitions out of a terminal state and backward
// transitions in the lifecycle ordering.
func (m *Manager) guardTransition(job *Job, next State) error {
	if job.State.Terminal() {
		return fmt.Errorf("job %s is already %s: cannot transition to %s", job.ID, job.State, next)
	}
	if next.Rank() < job.State.Rank() {
		return fmt.Errorf("job %s: transition %s -> %s goes backward", job.ID, job.State, next)
	}
	return nil
}
