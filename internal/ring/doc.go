// Package ring provides fixed-memory rolling buffers for live statistics.
//
// The buffers consume an unbounded stream of per-frame measurements while
// holding memory constant: once full they silently evict the oldest data.
// Unused slots carry an empty sentinel value distinct from any valid
// measurement (NaN for float series, -1 for the streak counter).
//
// # Ring
//
// Ring is a bulk-update rolling buffer for plot history:
//
//	r, _ := ring.New[float64](50_000, math.NaN(), ring.Mean[float64])
//
//	// Each update shifts history and keeps the batch reduction.
//	r.Update([]float64{3.1, 2.7})
//	last := r.LastValue()
//	series := r.Valid() // newest first, sentinel slots skipped
//
// Min and Max over a buffer with no valid data return an explicit error
// instead of a silent NaN.
//
// # PulseBuffer
//
// PulseBuffer appends one reduced value per frame, tagged with the frame's
// pulse identifier, and supports two read modes:
//
//	b, _ := ring.NewPulseBuffer[float64](750_000, math.NaN(), ring.Sum[float64], logger)
//	b.Update(braggCounts, pulseID)
//
//	values, ids := b.Drain() // consuming: only entries since last drain
//	values, ids = b.Peek()   // non-destructive preview of the same suffix
//
// Updates with a missing pulse identifier are logged and dropped; the
// stream is expected to contain occasional malformed records.
//
// # Concurrency
//
// The buffers are not internally locked. They are owned by the single
// ingest goroutine; the periodic display reader tolerates torn reads of
// this plot-only data. The binned statistics table, where partial updates
// would corrupt ratios, lives elsewhere and is fully serialized.
package ring
