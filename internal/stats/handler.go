package stats

import (
	"log/slog"
	"math"
	"sync"

	"github.com/detkit/framestats/internal/errors"
	"github.com/detkit/framestats/internal/ring"
	"github.com/detkit/framestats/pkg/frame"
)

// Series names exposed to the display layer.
const (
	SeriesStreaks       = "number_of_streaks"
	SeriesStreakLengths = "streak_lengths"
	SeriesBraggCounts   = "bragg_counts"
	SeriesBraggPulse    = "bragg_aggregate"
)

// Rolling buffer capacities, from the beamline analysis pipeline.
const (
	defaultStreaksSpan       = 5_000
	defaultStreakLengthsSpan = 50_000
	defaultBraggCountsSpan   = 50_000
	defaultBraggPulseSpan    = 750_000
)

// Config holds the aggregation core configuration.
type Config struct {
	BinWidth          uint64
	Lookback          int
	StreaksSpan       int
	StreakLengthsSpan int
	BraggCountsSpan   int
	BraggPulseSpan    int
}

func (c Config) withDefaults() Config {
	if c.StreaksSpan <= 0 {
		c.StreaksSpan = defaultStreaksSpan
	}
	if c.StreakLengthsSpan <= 0 {
		c.StreakLengthsSpan = defaultStreakLengthsSpan
	}
	if c.BraggCountsSpan <= 0 {
		c.BraggCountsSpan = defaultBraggCountsSpan
	}
	if c.BraggPulseSpan <= 0 {
		c.BraggPulseSpan = defaultBraggPulseSpan
	}
	return c
}

// Handler is the single entry point of the statistics core. It routes
// each consumed frame into the rolling buffers and the binned table and
// exposes read accessors for the display layer.
//
// Statistics collected:
//   - number of streaks detected (hit frames);
//   - length of streaks detected (hit frames);
//   - summed Bragg intensity (hit frames);
//   - per-pulse Bragg aggregate (every frame);
//   - the binned counter table with its summary row.
type Handler struct {
	// mu serializes the ingest path against API reads and clears. The
	// rings themselves are not synchronized; the table has its own lock.
	mu sync.RWMutex

	streaks       *ring.Ring[int64]
	streakLengths *ring.Ring[float64]
	braggCounts   *ring.Ring[float64]
	braggPulse    *ring.PulseBuffer[float64]
	table         *Table
	logger        *slog.Logger
}

// NewHandler creates a statistics handler with the given configuration.
func NewHandler(cfg Config, logger *slog.Logger) (*Handler, error) {
	cfg = cfg.withDefaults()

	streaks, err := ring.New[int64](cfg.StreaksSpan, -1, ring.Mean[int64])
	if err != nil {
		return nil, err
	}
	streakLengths, err := ring.New[float64](cfg.StreakLengthsSpan, math.NaN(), ring.Mean[float64])
	if err != nil {
		return nil, err
	}
	braggCounts, err := ring.New[float64](cfg.BraggCountsSpan, math.NaN(), ring.Sum[float64])
	if err != nil {
		return nil, err
	}
	braggPulse, err := ring.NewPulseBuffer[float64](cfg.BraggPulseSpan, math.NaN(), ring.Sum[float64], logger)
	if err != nil {
		return nil, err
	}

	return &Handler{
		streaks:       streaks,
		streakLengths: streakLengths,
		braggCounts:   braggCounts,
		braggPulse:    braggPulse,
		table:         NewTable(cfg.BinWidth, cfg.Lookback, logger),
		logger:        logger,
	}, nil
}

// Ingest folds one consumed frame into the statistics. Dummy placeholder
// frames are skipped entirely. The Bragg pulse aggregate and the binned
// table see every frame; the remaining series only track hit frames.
func (h *Handler) Ingest(f *frame.Frame) {
	if f.Image.IsDummy() {
		h.logger.Debug("dummy frame, skipping")
		return
	}
	meta := &f.Meta

	h.mu.Lock()
	defer h.mu.Unlock()

	h.braggPulse.Update(meta.BraggCountsOrDefault(), meta.PulseID)
	h.table.Record(meta)

	if !meta.IsHitFrame {
		h.logger.Debug("not a hit frame, skipping hit series")
		return
	}

	// The batches below are non-empty by construction.
	_ = h.braggCounts.Update([]float64{ring.Sum(meta.BraggCountsOrDefault())})
	_ = h.streaks.Update([]int64{meta.NumberOfStreaksOrDefault()})
	_ = h.streakLengths.Update(meta.StreakLengthsOrDefault())
}

// Clear empties all rolling buffers. The binned table is reset through a
// separate operation, matching the two reset hooks of the display layer.
func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.streaks.Clear()
	h.streakLengths.Clear()
	h.braggCounts.Clear()
	h.braggPulse.Clear()
}

// Table returns the binned statistics table.
func (h *Handler) Table() *Table {
	return h.table
}

// SeriesSnapshot is the rendered state of one rolling series. LastValue
// is nil until the series has received its first update.
type SeriesSnapshot struct {
	Name      string    `json:"name"`
	Values    []float64 `json:"values"`
	LastValue *float64  `json:"last_value"`
	Capacity  int       `json:"capacity"`
}

// SeriesRange is the min/max/count summary of one rolling series.
type SeriesRange struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// SeriesNames returns the names of all exposed series.
func (h *Handler) SeriesNames() []string {
	return []string{SeriesStreaks, SeriesStreakLengths, SeriesBraggCounts, SeriesBraggPulse}
}

// Series returns the valid values and last reduction of the named series.
func (h *Handler) Series(name string) (SeriesSnapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch name {
	case SeriesStreaks:
		return intSnapshot(name, h.streaks), nil
	case SeriesStreakLengths:
		return floatSnapshot(name, h.streakLengths), nil
	case SeriesBraggCounts:
		return floatSnapshot(name, h.braggCounts), nil
	case SeriesBraggPulse:
		return pulseSnapshot(name, h.braggPulse), nil
	default:
		return SeriesSnapshot{}, errors.ErrUnknownSeries
	}
}

// Range returns min and max over the valid values of the named series.
// A series with no valid data yields ErrNoValidData.
func (h *Handler) Range(name string) (SeriesRange, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch name {
	case SeriesStreaks:
		return intRange(name, h.streaks)
	case SeriesStreakLengths:
		return floatRange(name, h.streakLengths)
	case SeriesBraggCounts:
		return floatRange(name, h.braggCounts)
	default:
		return SeriesRange{}, errors.ErrUnknownSeries
	}
}

// DrainBraggPulse consumes the pulse-tagged aggregates appended since the
// previous drain, in arrival order.
func (h *Handler) DrainBraggPulse() ([]float64, []uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.braggPulse.Drain()
}

// PeekBraggPulse previews the unread pulse-tagged aggregates without
// consuming them.
func (h *Handler) PeekBraggPulse() ([]float64, []uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.braggPulse.Peek()
}

// LastBraggPulse returns the most recent pulse-tagged aggregate.
func (h *Handler) LastBraggPulse() (float64, uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.braggPulse.Last()
}

// Occupancy returns the number of valid entries per series, for gauges.
func (h *Handler) Occupancy() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int{
		SeriesStreaks:       len(h.streaks.Valid()),
		SeriesStreakLengths: len(h.streakLengths.Valid()),
		SeriesBraggCounts:   len(h.braggCounts.Valid()),
		SeriesBraggPulse:    h.braggPulse.Count(),
	}
}

func floatSnapshot(name string, r *ring.Ring[float64]) SeriesSnapshot {
	return SeriesSnapshot{
		Name:      name,
		Values:    r.Valid(),
		LastValue: optFloat(r.LastValue()),
		Capacity:  r.Capacity(),
	}
}

func intSnapshot(name string, r *ring.Ring[int64]) SeriesSnapshot {
	valid := r.Valid()
	values := make([]float64, len(valid))
	for i, v := range valid {
		values[i] = float64(v)
	}
	snap := SeriesSnapshot{
		Name:     name,
		Values:   values,
		Capacity: r.Capacity(),
	}
	// Streak counts are non-negative, so -1 only ever means "no update yet".
	if last := r.LastValue(); last != -1 {
		lastF := float64(last)
		snap.LastValue = &lastF
	}
	return snap
}

func pulseSnapshot(name string, b *ring.PulseBuffer[float64]) SeriesSnapshot {
	values, _ := b.Peek()
	return SeriesSnapshot{
		Name:      name,
		Values:    values,
		LastValue: optFloat(b.LastValue()),
		Capacity:  b.Capacity(),
	}
}

func floatRange(name string, r *ring.Ring[float64]) (SeriesRange, error) {
	min, err := r.Min()
	if err != nil {
		return SeriesRange{}, err
	}
	max, err := r.Max()
	if err != nil {
		return SeriesRange{}, err
	}
	return SeriesRange{Name: name, Min: min, Max: max, Count: len(r.Valid())}, nil
}

func intRange(name string, r *ring.Ring[int64]) (SeriesRange, error) {
	min, err := r.Min()
	if err != nil {
		return SeriesRange{}, err
	}
	max, err := r.Max()
	if err != nil {
		return SeriesRange{}, err
	}
	return SeriesRange{Name: name, Min: float64(min), Max: float64(max), Count: len(r.Valid())}, nil
}

// optFloat maps the NaN sentinel to nil for JSON rendering.
func optFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
