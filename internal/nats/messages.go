package nats

// DispatchMessage notifies workers that a job was enqueued and is claimable.
// It is a nudge, not a handoff: the job store stays authoritative and store
// polling picks up anything a lost message leaves behind.
type DispatchMessage struct {
	JobID string `json:"job_id"`
}

const (
	// DispatchSubject carries server-to-worker dispatch notifications.
	DispatchSubject = "crew.jobs.dispatch"
	// EventsSubject carries worker-to-server progress and log events for
	// relay to connected websocket observers.
	EventsSubject = "crew.jobs.events"
)
