package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crewhq/marketing-crew/internal/jobs"
	"github.com/crewhq/marketing-crew/internal/logger"
	"github.com/crewhq/marketing-crew/internal/nats"
	"github.com/crewhq/marketing-crew/internal/websocket"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// Routes builds the chi router for the API surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(correlationMiddleware)

	r.Post("/submit", s.handleSubmit)
	r.Get("/results/{taskID}", s.handleResults)
	r.Get("/jobs", s.handleListJobs)

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(s.hub, w, r)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", HandleHealth)
	r.Get("/health/ready", HandleReadiness)
	r.Get("/health/live", HandleLiveness)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/index.html")
	})

	return r
}

func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// handleSubmit accepts a form-encoded (domain, description) pair, creates a
// pending job and returns its id. The call never waits on the pipeline.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCorrelationID(getCorrelationID(r.Context()))

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Invalid form body")
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	domain := r.PostFormValue("domain")
	description := r.PostFormValue("description")
	if domain == "" {
		log.Warn().Msg("Submit rejected: domain missing")
		http.Error(w, "domain is required", http.StatusBadRequest)
		return
	}
	if description == "" {
		log.Warn().Msg("Submit rejected: description missing")
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}

	job, err := s.manager.Submit(domain, description)
	if err != nil {
		log.Error().Err(err).Msg("Failed to submit job")
		http.Error(w, "Failed to submit job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Dispatch is a best-effort nudge; workers also poll the store.
	if s.natsClient != nil {
		if err := s.natsClient.PublishDispatch(&nats.DispatchMessage{JobID: job.ID}); err != nil {
			log.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to publish dispatch")
		}
	}

	log.Info().Str("job_id", job.ID).Msg("Job accepted")
	websocket.BroadcastJobUpdate(s.hub, job)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": job.ID})
}

// resultResponse is the observer snapshot returned by /results.
type resultResponse struct {
	State    jobs.State     `json:"state"`
	Status   string         `json:"status,omitempty"`
	Progress *jobs.Progress `json:"progress,omitempty"`
	Result   string         `json:"result,omitempty"`
	Error    *jobs.Error    `json:"error,omitempty"`
}

// handleResults returns the current snapshot of a job. Unknown ids report
// PENDING: the queue backend cannot distinguish an id it has never seen
// from a job that has not started yet.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	log := logger.WithCorrelationID(getCorrelationID(r.Context()))

	job, err := s.manager.Get(taskID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeJSON(w, http.StatusOK, resultResponse{
				State:  jobs.StatePending,
				Status: "Pending...",
			})
			return
		}
		log.Error().Err(err).Str("job_id", taskID).Msg("Failed to get job")
		http.Error(w, "Failed to retrieve job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snapshot(job))
}

func snapshot(job *jobs.Job) resultResponse {
	resp := resultResponse{
		State:    job.State,
		Progress: job.Progress,
	}

	switch job.State {
	case jobs.StatePending:
		resp.Status = "Pending..."
	case jobs.StateStarted:
		resp.Status = "Processing..."
	case jobs.StateProgress:
		if job.Progress != nil {
			resp.Status = job.Progress.Stage
		}
	case jobs.StateSuccess:
		resp.Result = job.Result
	case jobs.StateFailure:
		resp.Error = job.Error
		if job.Error != nil {
			resp.Status = "Exception: " + job.Error.Kind + ": " + job.Error.Message
		}
	}
	return resp
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCorrelationID(getCorrelationID(r.Context()))

	all, err := s.manager.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list jobs")
		http.Error(w, "Failed to retrieve jobs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  all,
		"count": len(all),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to encode response")
	}
}
