package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/detkit/framestats/internal/stats"
	"github.com/detkit/framestats/pkg/frame"
)

func u64(v uint64) *uint64 { return &v }
func i64(v int64) *int64   { return &v }

func hitFrame(pulse uint64) *frame.Frame {
	return &frame.Frame{
		Meta: frame.Metadata{
			PulseID:         u64(pulse),
			IsHitFrame:      true,
			SaturatedPixels: i64(0),
			BraggCounts:     []float64{1, 2, 3},
			NumberOfStreaks: i64(4),
			StreakLengths:   []float64{2.5, 3.5},
		},
		Image: frame.Image{Shape: []int{512, 1024}, Dtype: "uint16"},
	}
}

func newTestAPI(t *testing.T) (*StatsAPI, *stats.Handler, *http.ServeMux) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	handler, err := stats.NewHandler(stats.Config{
		BinWidth:          10,
		Lookback:          5,
		StreaksSpan:       10,
		StreakLengthsSpan: 10,
		BraggCountsSpan:   10,
		BraggPulseSpan:    10,
	}, logger)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	api := NewStatsAPI(handler, logger)
	mux := http.NewServeMux()
	api.Register(mux)
	return api, handler, mux
}

func TestStatsAPI_Table(t *testing.T) {
	_, handler, mux := newTestAPI(t)
	handler.Ingest(hitFrame(100))
	handler.Ingest(hitFrame(103))
	handler.Ingest(hitFrame(115))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/table", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var response TableResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.BinWidth != 10 {
		t.Errorf("bin_width = %d, want 10", response.BinWidth)
	}
	if len(response.Rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(response.Rows))
	}
	if response.Rows[0].Bin != "10" {
		t.Errorf("rows[0].bin = %s, want 10", response.Rows[0].Bin)
	}
	if response.Rows[0].NFrames != 2 {
		t.Errorf("rows[0].nframes = %d, want 2", response.Rows[0].NFrames)
	}
	if response.Summary.Bin != "Summary" {
		t.Errorf("summary.bin = %s, want Summary", response.Summary.Bin)
	}
	if response.Summary.NFrames != 3 {
		t.Errorf("summary.nframes = %d, want 3", response.Summary.NFrames)
	}
}

func TestStatsAPI_Summary(t *testing.T) {
	_, handler, mux := newTestAPI(t)
	handler.Ingest(hitFrame(100))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/summary", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var row frame.Row
	if err := json.NewDecoder(w.Body).Decode(&row); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if row.Bin != "Summary" {
		t.Errorf("bin = %s, want Summary", row.Bin)
	}
	if row.NFrames != 1 {
		t.Errorf("nframes = %d, want 1", row.NFrames)
	}
}

func TestStatsAPI_Series(t *testing.T) {
	_, handler, mux := newTestAPI(t)
	handler.Ingest(hitFrame(100))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/series/bragg_counts", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var snapshot stats.SeriesSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snapshot); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snapshot.Name != "bragg_counts" {
		t.Errorf("name = %s, want bragg_counts", snapshot.Name)
	}
	if len(snapshot.Values) != 1 || snapshot.Values[0] != 6 {
		t.Errorf("values = %v, want [6]", snapshot.Values)
	}
	if snapshot.LastValue == nil || *snapshot.LastValue != 6 {
		t.Errorf("last_value = %v, want 6", snapshot.LastValue)
	}
}

func TestStatsAPI_SeriesUnknown(t *testing.T) {
	_, _, mux := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/series/bogus", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}

	var response ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error == "" {
		t.Error("error message should not be empty")
	}
}

func TestStatsAPI_SeriesRange(t *testing.T) {
	_, handler, mux := newTestAPI(t)
	handler.Ingest(hitFrame(100))
	handler.Ingest(hitFrame(101))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/series/streak_lengths/range", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var seriesRange stats.SeriesRange
	if err := json.NewDecoder(w.Body).Decode(&seriesRange); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if seriesRange.Min != 2.5 {
		t.Errorf("min = %v, want 2.5", seriesRange.Min)
	}
	if seriesRange.Max != 3.5 {
		t.Errorf("max = %v, want 3.5", seriesRange.Max)
	}
	if seriesRange.Count != 4 {
		t.Errorf("count = %d, want 4", seriesRange.Count)
	}
}

func TestStatsAPI_SeriesRangeNoData(t *testing.T) {
	_, _, mux := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats/series/bragg_counts/range", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestStatsAPI_Reset(t *testing.T) {
	api, handler, mux := newTestAPI(t)
	handler.Ingest(hitFrame(100))

	exported := false
	api.OnReset = func(ctx context.Context) error {
		exported = true
		return nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/reset", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}
	if !exported {
		t.Error("reset should invoke the export hook")
	}

	var response ControlResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "reset" {
		t.Errorf("status = %s, want reset", response.Status)
	}

	if handler.Table().Len() != 0 {
		t.Errorf("table rows after reset = %d, want 0", handler.Table().Len())
	}
	if occ := handler.Occupancy()["bragg_counts"]; occ != 0 {
		t.Errorf("bragg_counts occupancy after reset = %d, want 0", occ)
	}
}

func TestStatsAPI_Clear(t *testing.T) {
	_, handler, mux := newTestAPI(t)
	handler.Ingest(hitFrame(100))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stats/clear", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	var response ControlResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "cleared" {
		t.Errorf("status = %s, want cleared", response.Status)
	}

	if occ := handler.Occupancy()["number_of_streaks"]; occ != 0 {
		t.Errorf("number_of_streaks occupancy after clear = %d, want 0", occ)
	}
	if handler.Table().Len() != 1 {
		t.Errorf("table rows after clear = %d, want 1", handler.Table().Len())
	}
}
