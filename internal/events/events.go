// Package events defines the typed progress events emitted by the crew
// runner and the subscriber interface used to observe them. The websocket
// hub is one subscriber; the store-updating bookkeeper is another. Push is
// best-effort: polling the job store remains authoritative.
package events

import (
	"sync"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	TypeStageStarted   Type = "stage_started"
	TypeStageProgress  Type = "stage_progress"
	TypeStageCompleted Type = "stage_completed"
	TypeLogLine        Type = "log"
	TypeJobSucceeded   Type = "job_succeeded"
	TypeJobFailed      Type = "job_failed"
)

// Event is one progress or log notification for a single job.
type Event struct {
	Type    Type      `json:"type"`
	JobID   string    `json:"job_id"`
	Stage   string    `json:"stage,omitempty"`
	Percent float64   `json:"percent,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Subscriber receives events. Implementations must not block for long and
// must never panic; emission happens on the runner's goroutine.
type Subscriber interface {
	Notify(ev Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ev Event)

func (f SubscriberFunc) Notify(ev Event) { f(ev) }

// Emitter fans events out to a registered subscriber list.
type Emitter struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers a subscriber for all subsequent events.
func (e *Emitter) Subscribe(s Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, s)
}

// Emit delivers the event to every subscriber in registration order. A
// subscriber cannot fail an emission; delivery is fire-and-forget.
func (e *Emitter) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	e.mu.RLock()
	subs := make([]Subscriber, len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	for _, s := range subs {
		s.Notify(ev)
	}
}
