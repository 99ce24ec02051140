package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewhq/marketing-crew/internal/events"
	"github.com/crewhq/marketing-crew/internal/jobs"
	"github.com/crewhq/marketing-crew/internal/pipeline"
)

// fakeRunner emits a minimal stage sequence and returns a fixed result.
type fakeRunner struct {
	result string
	err    error
}

func (f *fakeRunner) Execute(ctx context.Context, run *pipeline.Run) (string, error) {
	run.Log.Append("stage research started")
	run.Emitter.Emit(events.Event{Type: events.TypeStageStarted, JobID: run.JobID, Stage: "research", Percent: 0})
	if f.err != nil {
		run.Emitter.Emit(events.Event{Type: events.TypeJobFailed, JobID: run.JobID, Stage: "research", Message: f.err.Error()})
		return "", f.err
	}
	run.Emitter.Emit(events.Event{Type: events.TypeStageCompleted, JobID: run.JobID, Stage: "research", Percent: 100})
	return f.result, nil
}

func startPool(t *testing.T, m *jobs.Manager, runner PipelineRunner, subs ...events.Subscriber) *Pool {
	t.Helper()
	pool := NewPool(m, runner, 1, 10*time.Millisecond)
	for _, s := range subs {
		pool.Subscribe(s)
	}
	pool.Start()
	t.Cleanup(pool.Stop)
	return pool
}

func TestPoolCompletesJob(t *testing.T) {
	m := jobs.NewManager(jobs.NewMemoryStore())
	startPool(t, m, &fakeRunner{result: "the post"})

	job, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := m.Get(job.ID)
		return err == nil && got.State == jobs.StateSuccess
	}, 2*time.Second, 10*time.Millisecond)

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "the post", got.Result)
	require.NotNil(t, got.Progress)
	assert.Equal(t, "research", got.Progress.Stage)
	assert.Nil(t, got.Error)
	assert.Contains(t, got.Log, "stage research started")
}

func TestPoolRecordsFailure(t *testing.T) {
	m := jobs.NewManager(jobs.NewMemoryStore())
	stageErr := &pipeline.StageError{
		Stage: "research",
		Err:   errors.New("model unavailable"),
		Trace: "goroutine 1 [running]:\n...",
	}
	startPool(t, m, &fakeRunner{err: stageErr})

	job, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := m.Get(job.ID)
		return err == nil && got.State == jobs.StateFailure
	}, 2*time.Second, 10*time.Millisecond)

	got, err := m.Get(job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.Equal(t, "*errors.errorString", got.Error.Kind)
	assert.Contains(t, got.Error.Message, "model unavailable")
	assert.NotEmpty(t, got.Error.Trace)
	// A failed job is never retried.
	time.Sleep(50 * time.Millisecond)
	again, err := m.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StateFailure, again.State)
}

func TestPoolForwardsEventsToSubscribers(t *testing.T) {
	m := jobs.NewManager(jobs.NewMemoryStore())

	seen := make(chan events.Event, 16)
	sub := events.SubscriberFunc(func(ev events.Event) { seen <- ev })
	startPool(t, m, &fakeRunner{result: "ok"}, sub)

	job, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := m.Get(job.ID)
		return err == nil && got.State.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	var types []events.Type
	for len(seen) > 0 {
		types = append(types, (<-seen).Type)
	}
	assert.Contains(t, types, events.TypeStageStarted)
	assert.Contains(t, types, events.TypeStageCompleted)
}

func TestPoolWake(t *testing.T) {
	m := jobs.NewManager(jobs.NewMemoryStore())
	// Long poll interval so completion within the timeout proves the wake
	// path claimed the job.
	pool := NewPool(m, &fakeRunner{result: "ok"}, 1, time.Hour)
	pool.Start()
	t.Cleanup(pool.Stop)

	job, err := m.Submit("acme.com", "B2B SaaS")
	require.NoError(t, err)
	pool.Wake()

	require.Eventually(t, func() bool {
		got, err := m.Get(job.ID)
		return err == nil && got.State == jobs.StateSuccess
	}, 2*time.Second, 10*time.Millisecond)
}

func TestErrorInfoFromStageError(t *testing.T) {
	inner := errors.New("boom")
	info := errorInfo(&pipeline.StageError{Stage: "post", Err: inner, Trace: "trace here"})
	assert.Equal(t, "*errors.errorString", info.Kind)
	assert.Contains(t, info.Message, "post")
	assert.Contains(t, info.Message, "boom")
	assert.Equal(t, "trace here", info.Trace)
}

func TestErrorInfoFromPlainError(t *testing.T) {
	info := errorInfo(errors.New("plain failure"))
	assert.NotEmpty(t, info.Kind)
	assert.Equal(t, "plain failure", info.Message)
	assert.NotEmpty(t, info.Trace)
}
