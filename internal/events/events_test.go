package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterFansOutInOrder(t *testing.T) {
	e := NewEmitter()

	var first, second []Type
	e.Subscribe(SubscriberFunc(func(ev Event) { first = append(first, ev.Type) }))
	e.Subscribe(SubscriberFunc(func(ev Event) { second = append(second, ev.Type) }))

	e.Emit(Event{Type: TypeStageStarted, JobID: "j1", Stage: "research"})
	e.Emit(Event{Type: TypeStageCompleted, JobID: "j1", Stage: "research"})

	want := []Type{TypeStageStarted, TypeStageCompleted}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestEmitterWithNoSubscribers(t *testing.T) {
	e := NewEmitter()
	// Emission with nobody listening is fine; updates stay retrievable via
	// the job store.
	e.Emit(Event{Type: TypeLogLine, JobID: "j1", Message: "hello"})
}

func TestEmitStampsTime(t *testing.T) {
	e := NewEmitter()

	var got Event
	e.Subscribe(SubscriberFunc(func(ev Event) { got = ev }))
	e.Emit(Event{Type: TypeJobSucceeded, JobID: "j1"})

	require.False(t, got.At.IsZero())
}
