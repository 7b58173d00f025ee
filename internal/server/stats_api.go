// Package server implements the statistics HTTP API handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/detkit/framestats/internal/errors"
	"github.com/detkit/framestats/internal/stats"
	"github.com/detkit/framestats/pkg/frame"
)

// TableResponse is the body of GET /api/v1/stats/table.
type TableResponse struct {
	BinWidth uint64      `json:"bin_width"`
	Rows     []frame.Row `json:"rows"`
	Summary  frame.Row   `json:"summary"`
}

// ErrorResponse is the JSON body returned for failed API requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ControlResponse acknowledges a reset or clear request.
type ControlResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatsAPI serves the statistics table and series over HTTP.
//
// OnReset, when set, runs before a table reset so the current snapshot can
// be exported first. An export failure is logged but does not block the
// reset.
type StatsAPI struct {
	stats   *stats.Handler
	logger  *slog.Logger
	OnReset func(ctx context.Context) error
}

// NewStatsAPI creates a new statistics API.
func NewStatsAPI(handler *stats.Handler, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		stats:  handler,
		logger: logger,
	}
}

// Register registers the API routes on the mux.
func (a *StatsAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/stats/table", a.handleTable)
	mux.HandleFunc("GET /api/v1/stats/summary", a.handleSummary)
	mux.HandleFunc("GET /api/v1/stats/series/{name}", a.handleSeries)
	mux.HandleFunc("GET /api/v1/stats/series/{name}/range", a.handleSeriesRange)
	mux.HandleFunc("POST /api/v1/stats/reset", a.handleReset)
	mux.HandleFunc("POST /api/v1/stats/clear", a.handleClear)
}

// handleTable returns all bin rows plus the summary row.
func (a *StatsAPI) handleTable(w http.ResponseWriter, r *http.Request) {
	table := a.stats.Table()

	response := TableResponse{
		BinWidth: table.BinWidth(),
		Rows:     table.Rows(),
		Summary:  table.Summary(),
	}

	a.writeJSON(w, http.StatusOK, response)
}

// handleSummary returns only the summary row.
func (a *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.stats.Table().Summary())
}

// handleSeries returns a full series snapshot, newest first.
func (a *StatsAPI) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	snapshot, err := a.stats.Series(name)
	if err != nil {
		a.writeError(w, name, err)
		return
	}

	a.writeJSON(w, http.StatusOK, snapshot)
}

// handleSeriesRange returns the min/max range of a series.
func (a *StatsAPI) handleSeriesRange(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	seriesRange, err := a.stats.Range(name)
	if err != nil {
		a.writeError(w, name, err)
		return
	}

	a.writeJSON(w, http.StatusOK, seriesRange)
}

// handleReset exports the current snapshot (when configured), then drops
// the statistics table and clears the plot series.
func (a *StatsAPI) handleReset(w http.ResponseWriter, r *http.Request) {
	if a.OnReset != nil {
		if err := a.OnReset(r.Context()); err != nil {
			a.logger.Error("snapshot export on reset failed", "error", err)
		}
	}

	a.stats.Table().Reset()
	a.stats.Clear()

	a.logger.Info("statistics reset via API")
	a.writeJSON(w, http.StatusOK, ControlResponse{
		Status:    "reset",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleClear clears the plot series but keeps the statistics table.
func (a *StatsAPI) handleClear(w http.ResponseWriter, r *http.Request) {
	a.stats.Clear()

	a.logger.Info("plot series cleared via API")
	a.writeJSON(w, http.StatusOK, ControlResponse{
		Status:    "cleared",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError maps series lookup failures to HTTP status codes.
func (a *StatsAPI) writeError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownSeries):
		a.writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "unknown series: " + name,
		})
	case errors.Is(err, apperrors.ErrNoValidData):
		a.writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: "series has no valid data: " + name,
		})
	default:
		a.logger.Error("series request failed", "series", name, "error", err)
		a.writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
		})
	}
}

func (a *StatsAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("failed to encode response", "error", err)
	}
}
