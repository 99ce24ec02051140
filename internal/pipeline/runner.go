package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/metrics"
)

// StageError is a failure raised by one stage. It carries the stage name
// and a diagnostic trace so the job record can report where and why the
// pipeline stopped.
type StageError struct {
	Stage string
	Err   error
	Trace string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// LogBuffer is an append-only buffer of log lines for a single run.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
}

// Append adds a line to the buffer.
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
}

// Lines returns a copy of all buffered lines.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// String returns the buffered log as a single newline-joined string.
func (b *LogBuffer) String() string {
	return strings.Join(b.Lines(), "\n")
}

// Run is the per-job execution context. Each job gets its own log buffer
// and emitter so concurrent jobs never interfere.
type Run struct {
	JobID   string
	Inputs  map[string]string
	Emitter *events.Emitter
	Log     *LogBuffer
}

// NewRun creates an execution context for one job.
func NewRun(jobID string, inputs map[string]string, emitter *events.Emitter) *Run {
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	return &Run{
		JobID:   jobID,
		Inputs:  inputs,
		Emitter: emitter,
		Log:     &LogBuffer{},
	}
}

func (r *Run) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.Log.Append(line)
	r.Emitter.Emit(events.Event{
		Type:    events.TypeLogLine,
		JobID:   r.JobID,
		Message: line,
	})
}

// Runner executes the configured stages in order against a Generator.
type Runner struct {
	cfg *Config
	gen Generator
}

// NewRunner creates a runner for a loaded pipeline definition.
func NewRunner(cfg *Config, gen Generator) *Runner {
	return &Runner{cfg: cfg, gen: gen}
}

// Execute runs every stage in order and returns the final stage's output.
// Stage outputs feed dependent stages as context. The first failing stage
// aborts the run; the returned error is always a *StageError.
func (r *Runner) Execute(ctx context.Context, run *Run) (string, error) {
	total := len(r.cfg.Stages)
	outputs := make(map[string]string, total)
	final := ""

	run.logf("crew %q started for domain %q", r.cfg.Crew, run.Inputs["customer_domain"])

	for i, stage := range r.cfg.Stages {
		run.Emitter.Emit(events.Event{
			Type:    events.TypeStageStarted,
			JobID:   run.JobID,
			Stage:   stage.Name,
			Percent: percent(i, total),
		})
		run.logf("stage %q started (agent: %s)", stage.Name, stage.Role)

		started := time.Now()
		out, err := r.runStage(ctx, run, stage, outputs)
		metrics.StageDuration.WithLabelValues(stage.Name).Observe(time.Since(started).Seconds())

		if err != nil {
			run.logf("stage %q failed: %v", stage.Name, err)
			run.Emitter.Emit(events.Event{
				Type:    events.TypeJobFailed,
				JobID:   run.JobID,
				Stage:   stage.Name,
				Message: err.Error(),
			})
			return "", err
		}

		outputs[stage.Name] = out
		final = out

		done := percent(i+1, total)
		run.logf("stage %q completed (%.0f%%)", stage.Name, done)
		run.Emitter.Emit(events.Event{
			Type:    events.TypeStageCompleted,
			JobID:   run.JobID,
			Stage:   stage.Name,
			Percent: done,
		})
	}

	run.logf("crew %q completed all stages", r.cfg.Crew)
	run.Emitter.Emit(events.Event{
		Type:  events.TypeJobSucceeded,
		JobID: run.JobID,
	})
	return final, nil
}

// runStage executes a single stage, converting errors and panics into a
// *StageError with a captured trace.
func (r *Runner) runStage(ctx context.Context, run *Run, stage Stage, outputs map[string]string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &StageError{
				Stage: stage.Name,
				Err:   fmt.Errorf("panic: %v", p),
				Trace: string(debug.Stack()),
			}
		}
	}()

	systemPrompt := renderSystemPrompt(stage, run.Inputs)
	userPrompt := renderUserPrompt(stage, run.Inputs, outputs)

	out, genErr := r.gen.Generate(ctx, systemPrompt, userPrompt)
	if genErr != nil {
		return "", &StageError{
			Stage: stage.Name,
			Err:   genErr,
			Trace: string(debug.Stack()),
		}
	}
	return out, nil
}

func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
