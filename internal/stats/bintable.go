// Package stats implements the streaming statistics aggregation core.
package stats

import (
	"log/slog"
	"math"
	"strconv"
	"sync"

	"github.com/detkit/framestats/pkg/frame"
)

// Binning and lookback defaults, from the beamline analysis pipeline.
const (
	DefaultBinWidth = 10_000
	DefaultLookback = 5
)

// summaryLabel identifies the permanent summary row.
const summaryLabel = "Summary"

// countNA marks a counter as not applicable for a bin, distinct from 0.
// Once set it is sticky: later increments in the same bin keep it NA.
const countNA = -1

// bin accumulates counters and ratios for one pulse-id range. Ratios are
// NaN until their denominator is positive.
type bin struct {
	id              uint64
	nframes         int64
	badFrames       int64
	satPixNFrames   int64
	laserOnNFrames  int64
	laserOnHits     int64
	laserOnRatio    float64
	laserOffNFrames int64
	laserOffHits    int64
	laserOffRatio   float64
}

func newBin(id uint64) *bin {
	return &bin{
		id:            id,
		laserOnRatio:  math.NaN(),
		laserOffRatio: math.NaN(),
	}
}

// laserFields returns the counter and ratio fields for one laser state.
func (b *bin) laserFields(on bool) (nframes, hits *int64, ratio *float64) {
	if on {
		return &b.laserOnNFrames, &b.laserOnHits, &b.laserOnRatio
	}
	return &b.laserOffNFrames, &b.laserOffHits, &b.laserOffRatio
}

// markLaserNA marks all six laser fields of the bin as not applicable.
func (b *bin) markLaserNA() {
	b.laserOnNFrames = countNA
	b.laserOnHits = countNA
	b.laserOnRatio = math.NaN()
	b.laserOffNFrames = countNA
	b.laserOffHits = countNA
	b.laserOffRatio = math.NaN()
}

// inc increments a counter unless it is marked not applicable.
func inc(counter *int64) {
	if *counter != countNA {
		*counter++
	}
}

// Table is the time-binned statistics table. Bins are keyed by
// pulse_id / binWidth and kept in discovery order; key uniqueness is
// enforced only within the lookback window, so a recurring key outside
// the window starts a fresh bin. A permanent summary row aggregates every
// bin ever seen and is never part of the bin list.
//
// All mutation and multi-field reads are serialized by one internal
// mutex shared between the ingest path and the display/reset path.
type Table struct {
	binWidth uint64
	lookback int
	bins     []*bin
	summary  *bin
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewTable creates a table with the given bin width and lookback window.
// Non-positive arguments fall back to the defaults.
func NewTable(binWidth uint64, lookback int, logger *slog.Logger) *Table {
	if binWidth == 0 {
		binWidth = DefaultBinWidth
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Table{
		binWidth: binWidth,
		lookback: lookback,
		summary:  newBin(0),
		logger:   logger,
	}
}

// Record folds one frame into the table. Frames without a pulse
// identifier are logged and dropped; no counter changes.
func (t *Table) Record(meta *frame.Metadata) {
	if meta.PulseID == nil {
		t.logger.Warn("dropping frame from statistics table: pulse id is missing")
		return
	}
	binID := *meta.PulseID / t.binWidth

	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.lookup(binID)
	if b == nil {
		b = newBin(binID)
		t.bins = append(t.bins, b)
	}

	b.nframes++
	t.summary.nframes++

	if meta.IsGoodFrame != nil && !*meta.IsGoodFrame {
		inc(&b.badFrames)
		t.summary.badFrames++
	}

	if meta.SaturatedPixels != nil {
		if *meta.SaturatedPixels != 0 {
			inc(&b.satPixNFrames)
			t.summary.satPixNFrames++
		}
	} else {
		// Field absent upstream: the bin must not show a stale numeric.
		b.satPixNFrames = countNA
	}

	switch {
	case meta.LaserOn != nil:
		nframes, hits, ratio := b.laserFields(*meta.LaserOn)
		sumNFrames, sumHits, sumRatio := t.summary.laserFields(*meta.LaserOn)

		inc(nframes)
		*sumNFrames++
		if meta.IsHitFrame {
			inc(hits)
			*sumHits++
		}

		// Division guarded: the NA marker (-1) also fails the check.
		if *nframes > 0 {
			*ratio = float64(*hits) / float64(*nframes)
		}
		if *sumNFrames > 0 {
			*sumRatio = float64(*sumHits) / float64(*sumNFrames)
		}
	default:
		// Laser state unknown for this frame: this bin only, summary
		// keeps aggregating frames that do carry the flag.
		b.markLaserNA()
	}
}

// lookup searches the newest lookback bins for a matching key. Callers
// must hold the lock.
func (t *Table) lookup(binID uint64) *bin {
	start := len(t.bins) - t.lookback
	if start < 0 {
		start = 0
	}
	for i := len(t.bins) - 1; i >= start; i-- {
		if t.bins[i].id == binID {
			return t.bins[i]
		}
	}
	return nil
}

// Reset drops all bins and zeroes the summary counters. The summary row
// keeps its identifying label.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.bins = nil
	t.summary = newBin(0)
}

// Rows returns the bins in discovery order, rendered for display.
func (t *Table) Rows() []frame.Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]frame.Row, len(t.bins))
	for i, b := range t.bins {
		rows[i] = renderRow(b, strconv.FormatUint(b.id, 10))
	}
	return rows
}

// Summary returns the rendered summary row.
func (t *Table) Summary() frame.Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	return renderRow(t.summary, summaryLabel)
}

// Len returns the current number of bins.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.bins)
}

// BinWidth returns the configured pulse-id bin width.
func (t *Table) BinWidth() uint64 {
	return t.binWidth
}

func renderRow(b *bin, label string) frame.Row {
	return frame.Row{
		Bin:             label,
		NFrames:         b.nframes,
		BadFrames:       b.badFrames,
		SatPixNFrames:   optCount(b.satPixNFrames),
		LaserOnNFrames:  optCount(b.laserOnNFrames),
		LaserOnHits:     optCount(b.laserOnHits),
		LaserOnRatio:    optRatio(b.laserOnRatio),
		LaserOffNFrames: optCount(b.laserOffNFrames),
		LaserOffHits:    optCount(b.laserOffHits),
		LaserOffRatio:   optRatio(b.laserOffRatio),
	}
}

// optCount renders a counter, mapping the NA marker to null.
func optCount(v int64) *int64 {
	if v == countNA {
		return nil
	}
	return &v
}

// optRatio renders a ratio, mapping "undefined" to null.
func optRatio(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
