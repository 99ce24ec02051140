package api

import (
	"database/sql"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

type ReadinessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
}

var dbConn *sql.DB

// SetDBConnection wires the readiness probe to the shared store connection.
// In single-process mode there is no database and readiness reports it as
// unused.
func SetDBConnection(conn *sql.DB) {
	dbConn = conn
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "crew-api",
	})
}

func HandleReadiness(w http.ResponseWriter, r *http.Request) {
	dbStatus := "unused"
	if dbConn != nil {
		if err := dbConn.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
				Status:    "not ready",
				Timestamp: time.Now(),
				Service:   "crew-api",
				Database:  "disconnected",
			})
			return
		}
		dbStatus = "connected"
	}

	writeJSON(w, http.StatusOK, ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Service:   "crew-api",
		Database:  dbStatus,
	})
}

func HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Service:   "crew-api",
	})
}
