// Package server exposes the statistics API, health probes, and the
// Prometheus metrics endpoint over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// LivenessHandler serves Kubernetes liveness probes. Liveness only fails
// when the process needs a restart.
func LivenessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker.Liveness() {
			writeHealth(w, logger, http.StatusOK, HealthResponse{Status: "alive"})
			return
		}
		writeHealth(w, logger, http.StatusServiceUnavailable, HealthResponse{Status: "not alive"})
	}
}

// ReadinessHandler serves Kubernetes readiness probes. The service is
// ready once the frame consumer is attached to its consumer group.
func ReadinessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ready", http.StatusOK
		if !checker.Readiness(r.Context()) {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		writeHealth(w, logger, code, HealthResponse{
			Status: status,
			Checks: checker.GetStatus(),
		})
	}
}

func writeHealth(w http.ResponseWriter, logger *slog.Logger, code int, response HealthResponse) {
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}
