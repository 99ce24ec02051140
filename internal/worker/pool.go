package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/jobs"
	"github.com/crewhq/marketing-crew/internal/logger"
	"github.com/crewhq/marketing-crew/internal/metrics"
	"github.com/crewhq/marketing-crew/internal/pipeline"
)

// PipelineRunner executes the crew pipeline for one job run.
type PipelineRunner interface {
	Execute(ctx context.Context, run *pipeline.Run) (string, error)
}

// Pool claims pending jobs from the store and runs the crew pipeline on
// them. Claims come from periodic polling plus an optional wake channel fed
// by NATS dispatch notifications.
type Pool struct {
	manager      *jobs.Manager
	runner       PipelineRunner
	subscribers  []events.Subscriber
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	wake         chan struct{}
	workerCount  int
	pollInterval time.Duration
}

// NewPool creates a worker pool.
func NewPool(manager *jobs.Manager, runner PipelineRunner, workerCount int, pollInterval time.Duration) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		manager:      manager,
		runner:       runner,
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		workerCount:  workerCount,
		pollInterval: pollInterval,
	}
}

// Subscribe registers a subscriber that receives the events of every job
// this pool runs. Must be called before Start.
func (p *Pool) Subscribe(s events.Subscriber) {
	p.subscribers = append(p.subscribers, s)
}

// Wake nudges an idle worker to attempt a claim immediately.
func (p *Pool) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start begins processing jobs with the configured number of workers.
func (p *Pool) Start() {
	logger.Logger.Info().Int("worker_count", p.workerCount).Msg("Starting worker pool")
	metrics.ActiveWorkers.Set(float64(p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully shuts down the worker pool. Jobs already running finish;
// there is no mid-job cancellation.
func (p *Pool) Stop() {
	logger.Logger.Info().Msg("Stopping worker pool")
	p.cancel()
	p.wg.Wait()
	metrics.ActiveWorkers.Set(0)
	logger.Logger.Info().Msg("Worker pool stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger.Logger.Info().Int("worker_id", id).Msg("Worker started")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			logger.Logger.Info().Int("worker_id", id).Msg("Worker shutting down")
			return
		case <-p.wake:
			p.claimAndRun(id)
		case <-ticker.C:
			p.claimAndRun(id)
		}
	}
}

func (p *Pool) claimAndRun(workerID int) {
	for {
		job, err := p.manager.ClaimPending()
		if err != nil {
			logger.Logger.Error().Int("worker_id", workerID).Err(err).Msg("Error claiming pending job")
			return
		}
		if job == nil {
			return
		}
		p.processJob(workerID, job)
	}
}

// processJob runs the pipeline for one claimed job and records the outcome.
func (p *Pool) processJob(workerID int, job *jobs.Job) {
	startTime := time.Now()
	log := logger.WithJobID(job.ID)
	log.Info().
		Int("worker_id", workerID).
		Str("domain", job.Domain).
		Msg("Running crew pipeline")

	emitter := events.NewEmitter()
	for _, s := range p.subscribers {
		emitter.Subscribe(s)
	}
	emitter.Subscribe(p.progressRecorder(job))

	run := pipeline.NewRun(job.ID, map[string]string{
		"customer_domain":     job.Domain,
		"project_description": job.Description,
	}, emitter)

	result, err := p.runner.Execute(p.ctx, run)
	metrics.JobProcessingDuration.Observe(time.Since(startTime).Seconds())

	// The run log stays readable on the job record after the run ends.
	job.Log = run.Log.String()

	if err != nil {
		log.Error().Int("worker_id", workerID).Err(err).Msg("Pipeline failed")
		if updateErr := p.manager.Fail(job, errorInfo(err)); updateErr != nil {
			log.Error().Err(updateErr).Msg("Failed to record job failure")
		}
		return
	}

	if err := p.manager.Complete(job, result); err != nil {
		log.Error().Err(err).Msg("Failed to record job completion")
		return
	}

	log.Info().
		Int("worker_id", workerID).
		Dur("duration", time.Since(startTime)).
		Msg("Job completed")
}

// progressRecorder keeps the stored job in sync with runner events so that
// polling observers see stage checkpoints even with no websocket attached.
func (p *Pool) progressRecorder(job *jobs.Job) events.Subscriber {
	return events.SubscriberFunc(func(ev events.Event) {
		switch ev.Type {
		case events.TypeStageStarted, events.TypeStageCompleted:
			if err := p.manager.UpdateProgress(job, ev.Stage, ev.Percent); err != nil {
				logger.WithJobID(job.ID).Warn().Err(err).Msg("Failed to persist progress")
			}
		}
	})
}

// errorInfo turns a pipeline error into the stored error record: kind,
// message and diagnostic trace.
func errorInfo(err error) jobs.Error {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return jobs.Error{
			Kind:    fmt.Sprintf("%T", stageErr.Unwrap()),
			Message: stageErr.Error(),
			Trace:   stageErr.Trace,
		}
	}
	return jobs.Error{
		Kind:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Trace:   string(debug.Stack()),
	}
}
