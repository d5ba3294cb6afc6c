package handlers

import (
	"net/http"
	"runtime"
	"time"

	"fotoboek/internal/logging"
	"fotoboek/internal/startup"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	PendingTasks  map[string]int `json:"pendingTasks,omitempty"`
	FilesByType   map[string]int `json:"filesByType,omitempty"`
	TotalPending  int            `json:"totalPending"`
	SchemaVersion uint           `json:"schemaVersion,omitempty"`
	NumGoroutine  int            `json:"numGoroutine"`
	GoVersion     string         `json:"goVersion"`
}

// HealthCheck reports healthy when the database answers, together with a
// summary of the task queue.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		NumGoroutine: runtime.NumGoroutine(),
		GoVersion:    runtime.Version(),
	}

	ctx := r.Context()
	if err := h.db.Ping(ctx); err != nil {
		logging.Warn("health check: database ping failed: %v", err)
		response.Status = statusUnhealthy
		response.Error = "database unavailable"
		writeJSONStatus(w, http.StatusServiceUnavailable, response)
		return
	}

	stats, err := h.db.QueueStats(ctx)
	if err != nil {
		logging.Warn("health check: queue stats failed: %v", err)
	} else {
		response.PendingTasks = stats.PendingByModule
		response.FilesByType = stats.FilesByType
		for _, n := range stats.PendingByModule {
			response.TotalPending += n
		}
	}
	response.SchemaVersion = h.db.SchemaVersion()

	writeJSONStatus(w, http.StatusOK, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}
