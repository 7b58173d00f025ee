package ring

import (
	"log/slog"

	"github.com/detkit/framestats/internal/errors"
)

// PulseBuffer is a fixed-capacity FIFO of (value, pulse id) pairs. Each
// update appends one reduced value tagged with its pulse identifier,
// evicting the oldest pair at capacity. A drain cursor tracks how many of
// the newest entries the consuming reader has not seen yet.
//
// Like Ring, PulseBuffer is owned by the single ingest path.
type PulseBuffer[T Value] struct {
	values []T
	ids    []uint64
	empty  T
	reduce Reducer[T]
	last   T

	head   int // index of the oldest entry
	count  int // occupied entries
	unread int // newest entries not yet drained, <= count

	logger *slog.Logger
}

// NewPulseBuffer creates a pulse buffer with the given capacity, empty
// sentinel and reducer.
func NewPulseBuffer[T Value](capacity int, empty T, reduce Reducer[T], logger *slog.Logger) (*PulseBuffer[T], error) {
	if capacity <= 0 {
		return nil, errors.ErrInvalidCapacity
	}
	b := &PulseBuffer[T]{
		values: make([]T, capacity),
		ids:    make([]uint64, capacity),
		empty:  empty,
		reduce: reduce,
		last:   empty,
		logger: logger,
	}
	for i := range b.values {
		b.values[i] = empty
	}
	return b, nil
}

// Update reduces the batch to one value and appends it tagged with the
// pulse identifier. A nil identifier marks a malformed upstream record:
// the update is dropped with a warning and no state changes.
func (b *PulseBuffer[T]) Update(batch []T, pulseID *uint64) {
	if pulseID == nil {
		b.logger.Warn("cannot update pulse buffer: pulse id is missing")
		return
	}
	if len(batch) == 0 {
		b.logger.Warn("cannot update pulse buffer: batch is empty", "pulse_id", *pulseID)
		return
	}

	value := b.reduce(batch)
	pos := (b.head + b.count) % len(b.values)
	b.values[pos] = value
	b.ids[pos] = *pulseID

	if b.count == len(b.values) {
		// Oldest pair evicted; head advances one slot.
		b.head = (b.head + 1) % len(b.values)
	} else {
		b.count++
	}

	b.last = value
	if b.unread < b.count {
		b.unread++
	}
}

// Drain returns the entries appended since the previous drain, in arrival
// order, and resets the cursor. Draining an empty or fully-read buffer
// yields two empty sequences, never an error.
func (b *PulseBuffer[T]) Drain() ([]T, []uint64) {
	values, ids := b.Peek()
	b.unread = 0
	return values, ids
}

// Peek returns the same unread suffix as Drain without consuming it.
func (b *PulseBuffer[T]) Peek() ([]T, []uint64) {
	if b.count == 0 || b.unread == 0 {
		return []T{}, []uint64{}
	}

	values := make([]T, b.unread)
	ids := make([]uint64, b.unread)
	start := b.head + b.count - b.unread
	for i := 0; i < b.unread; i++ {
		pos := (start + i) % len(b.values)
		values[i] = b.values[pos]
		ids[i] = b.ids[pos]
	}
	return values, ids
}

// Last returns the most recently appended pair without affecting the
// drain cursor.
func (b *PulseBuffer[T]) Last() (T, uint64, error) {
	if b.count == 0 {
		var zero T
		return zero, 0, errors.ErrNoValidData
	}
	pos := (b.head + b.count - 1) % len(b.values)
	return b.values[pos], b.ids[pos], nil
}

// LastValue returns the reduction result of the most recent update, or
// the empty sentinel before the first update.
func (b *PulseBuffer[T]) LastValue() T {
	return b.last
}

// Count returns the number of valid entries currently held.
func (b *PulseBuffer[T]) Count() int {
	return b.count
}

// Capacity returns the fixed slot count of the buffer.
func (b *PulseBuffer[T]) Capacity() int {
	return len(b.values)
}

// Clear resets values, identifiers and the drain cursor to initial state.
// LastValue is left untouched, matching Ring.Clear.
func (b *PulseBuffer[T]) Clear() {
	for i := range b.values {
		b.values[i] = b.empty
		b.ids[i] = 0
	}
	b.head = 0
	b.count = 0
	b.unread = 0
}
