// Package ring implements the fixed-memory rolling buffers backing the
// live statistics series.
package ring

import (
	"github.com/detkit/framestats/internal/errors"
)

// Value constrains the element types the buffers support.
type Value interface {
	~int64 | ~float64
}

// Reducer collapses a batch of values into one aggregate.
type Reducer[T Value] func(batch []T) T

// Mean returns the arithmetic mean of the batch. Integer means truncate.
func Mean[T Value](batch []T) T {
	var sum T
	for _, v := range batch {
		sum += v
	}
	return sum / T(len(batch))
}

// Sum returns the sum of the batch.
func Sum[T Value](batch []T) T {
	var sum T
	for _, v := range batch {
		sum += v
	}
	return sum
}

// Ring is a fixed-capacity rolling buffer of scalar values. Slot 0 holds
// the newest value; updates shift existing contents toward the tail and
// silently evict the oldest. Unused slots hold the empty sentinel.
//
// Ring is not safe for concurrent use. It is owned by the single ingest
// path; the read path tolerates torn reads of plot-only data.
type Ring[T Value] struct {
	slots  []T
	empty  T
	reduce Reducer[T]
	last   T
}

// New creates a ring with the given capacity, empty sentinel and reducer.
// For float buffers the sentinel is typically NaN, for integer buffers a
// value outside the measurement domain such as -1.
func New[T Value](capacity int, empty T, reduce Reducer[T]) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, errors.ErrInvalidCapacity
	}
	r := &Ring[T]{
		slots:  make([]T, capacity),
		empty:  empty,
		reduce: reduce,
		last:   empty,
	}
	for i := range r.slots {
		r.slots[i] = empty
	}
	return r, nil
}

// isEmptySlot reports whether v equals the sentinel. NaN sentinels need
// the v != v form since NaN never compares equal to itself.
func (r *Ring[T]) isEmptySlot(v T) bool {
	return v == r.empty || (v != v && r.empty != r.empty)
}

// Update shifts existing contents toward the tail by len(batch) slots,
// evicting the oldest entries, and writes the batch into the freed head
// positions in given order. LastValue becomes reduce(batch).
func (r *Ring[T]) Update(batch []T) error {
	if len(batch) == 0 {
		return errors.ErrEmptyBatch
	}
	n := len(batch)
	if n >= len(r.slots) {
		copy(r.slots, batch[:len(r.slots)])
	} else {
		copy(r.slots[n:], r.slots[:len(r.slots)-n])
		copy(r.slots[:n], batch)
	}
	r.last = r.reduce(batch)
	return nil
}

// Valid returns all non-sentinel slots in buffer order, newest first.
// The returned slice is freshly allocated and reflects state at call time.
func (r *Ring[T]) Valid() []T {
	out := make([]T, 0, len(r.slots))
	for _, v := range r.slots {
		if !r.isEmptySlot(v) {
			out = append(out, v)
		}
	}
	return out
}

// HasData reports whether at least one slot holds a valid value.
func (r *Ring[T]) HasData() bool {
	for _, v := range r.slots {
		if !r.isEmptySlot(v) {
			return true
		}
	}
	return false
}

// Min returns the smallest valid value. Calling Min on a buffer with no
// valid data is a domain error.
func (r *Ring[T]) Min() (T, error) {
	valid := r.Valid()
	if len(valid) == 0 {
		var zero T
		return zero, errors.ErrNoValidData
	}
	min := valid[0]
	for _, v := range valid[1:] {
		if v < min {
			min = v
		}
	}
	return min, nil
}

// Max returns the largest valid value. Calling Max on a buffer with no
// valid data is a domain error.
func (r *Ring[T]) Max() (T, error) {
	valid := r.Valid()
	if len(valid) == 0 {
		var zero T
		return zero, errors.ErrNoValidData
	}
	max := valid[0]
	for _, v := range valid[1:] {
		if v > max {
			max = v
		}
	}
	return max, nil
}

// LastValue returns the reduction result of the most recent batch, or the
// empty sentinel before the first update.
func (r *Ring[T]) LastValue() T {
	return r.last
}

// Clear resets every slot to the empty sentinel. LastValue is deliberately
// left untouched so the display keeps showing the most recent reading.
func (r *Ring[T]) Clear() {
	for i := range r.slots {
		r.slots[i] = r.empty
	}
}

// Capacity returns the fixed slot count of the buffer.
func (r *Ring[T]) Capacity() int {
	return len(r.slots)
}
