package ring

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/detkit/framestats/internal/errors"
)

func TestNew(t *testing.T) {
	r, err := New[int64](5, -1, Mean[int64])
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if r.Capacity() != 5 {
		t.Errorf("Capacity() = %d, want 5", r.Capacity())
	}
	if r.HasData() {
		t.Error("HasData() = true for a fresh buffer, want false")
	}
	if r.LastValue() != -1 {
		t.Errorf("LastValue() = %d, want sentinel -1", r.LastValue())
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
	}{
		{"zero", 0},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[float64](tt.capacity, math.NaN(), Mean[float64])
			if !errors.Is(err, apperrors.ErrInvalidCapacity) {
				t.Errorf("New(%d) error = %v, want ErrInvalidCapacity", tt.capacity, err)
			}
		})
	}
}

func TestRing_Update(t *testing.T) {
	r, err := New[int64](5, -1, Mean[int64])
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := r.Update([]int64{1, 2}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	valid := r.Valid()
	want := []int64{1, 2}
	if len(valid) != len(want) {
		t.Fatalf("Valid() returned %d values, want %d", len(valid), len(want))
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("Valid()[%d] = %d, want %d", i, valid[i], want[i])
		}
	}
}

func TestRing_UpdateShiftsOldEntries(t *testing.T) {
	r, _ := New[int64](4, -1, Sum[int64])

	if err := r.Update([]int64{1, 2}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := r.Update([]int64{3, 4}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Newest batch occupies the head in given order, older entries follow.
	valid := r.Valid()
	want := []int64{3, 4, 1, 2}
	if len(valid) != len(want) {
		t.Fatalf("Valid() returned %d values, want %d", len(valid), len(want))
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("Valid()[%d] = %d, want %d", i, valid[i], want[i])
		}
	}
}

func TestRing_UpdateEvictsOldest(t *testing.T) {
	r, _ := New[int64](3, -1, Sum[int64])

	_ = r.Update([]int64{1, 2, 3})
	_ = r.Update([]int64{9})

	valid := r.Valid()
	want := []int64{9, 1, 2}
	if len(valid) != len(want) {
		t.Fatalf("Valid() returned %d values, want %d", len(valid), len(want))
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("Valid()[%d] = %d, want %d", i, valid[i], want[i])
		}
	}
}

func TestRing_UpdateBatchLargerThanCapacity(t *testing.T) {
	r, _ := New[int64](3, -1, Sum[int64])

	// Only the first capacity entries of an oversized batch survive.
	if err := r.Update([]int64{10, 20, 30, 40, 50}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	valid := r.Valid()
	want := []int64{10, 20, 30}
	if len(valid) != len(want) {
		t.Fatalf("Valid() returned %d values, want %d", len(valid), len(want))
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("Valid()[%d] = %d, want %d", i, valid[i], want[i])
		}
	}

	if got := r.LastValue(); got != 150 {
		t.Errorf("LastValue() = %d, want reduce over the full batch 150", got)
	}
}

func TestRing_UpdateEmptyBatch(t *testing.T) {
	r, _ := New[int64](3, -1, Sum[int64])

	err := r.Update(nil)
	if !errors.Is(err, apperrors.ErrEmptyBatch) {
		t.Errorf("Update(nil) error = %v, want ErrEmptyBatch", err)
	}
	if r.HasData() {
		t.Error("HasData() = true after rejected update, want false")
	}
}

func TestRing_NaNSentinel(t *testing.T) {
	r, _ := New[float64](4, math.NaN(), Mean[float64])

	if r.HasData() {
		t.Error("HasData() = true for a fresh NaN-sentinel buffer, want false")
	}

	_ = r.Update([]float64{1.5, 2.5})

	valid := r.Valid()
	if len(valid) != 2 {
		t.Fatalf("Valid() returned %d values, want 2", len(valid))
	}
	if valid[0] != 1.5 || valid[1] != 2.5 {
		t.Errorf("Valid() = %v, want [1.5 2.5]", valid)
	}
}

func TestRing_NaNDataWithNaNSentinel(t *testing.T) {
	// A NaN measurement is indistinguishable from the sentinel and is
	// treated as empty. Zero must survive: it is data, not a marker.
	r, _ := New[float64](4, math.NaN(), Mean[float64])

	_ = r.Update([]float64{0, math.NaN(), 3})

	valid := r.Valid()
	want := []float64{0, 3}
	if len(valid) != len(want) {
		t.Fatalf("Valid() returned %d values, want %d", len(valid), len(want))
	}
	for i := range want {
		if valid[i] != want[i] {
			t.Errorf("Valid()[%d] = %v, want %v", i, valid[i], want[i])
		}
	}
}

func TestRing_MinMax(t *testing.T) {
	r, _ := New[float64](5, math.NaN(), Mean[float64])

	_ = r.Update([]float64{3, 1, 4})

	min, err := r.Min()
	if err != nil {
		t.Fatalf("Min() error = %v", err)
	}
	if min != 1 {
		t.Errorf("Min() = %v, want 1", min)
	}

	max, err := r.Max()
	if err != nil {
		t.Fatalf("Max() error = %v", err)
	}
	if max != 4 {
		t.Errorf("Max() = %v, want 4", max)
	}
}

func TestRing_MinMaxNoValidData(t *testing.T) {
	r, _ := New[float64](5, math.NaN(), Mean[float64])

	if _, err := r.Min(); !errors.Is(err, apperrors.ErrNoValidData) {
		t.Errorf("Min() error = %v, want ErrNoValidData", err)
	}
	if _, err := r.Max(); !errors.Is(err, apperrors.ErrNoValidData) {
		t.Errorf("Max() error = %v, want ErrNoValidData", err)
	}
}

func TestRing_LastValue(t *testing.T) {
	r, _ := New[float64](5, math.NaN(), Mean[float64])

	_ = r.Update([]float64{2, 4})
	if got := r.LastValue(); got != 3 {
		t.Errorf("LastValue() = %v, want 3", got)
	}

	_ = r.Update([]float64{10})
	if got := r.LastValue(); got != 10 {
		t.Errorf("LastValue() = %v, want 10", got)
	}
}

func TestRing_ClearKeepsLastValue(t *testing.T) {
	r, _ := New[int64](5, -1, Sum[int64])

	_ = r.Update([]int64{7, 8})
	r.Clear()

	if r.HasData() {
		t.Error("HasData() = true after Clear(), want false")
	}
	if len(r.Valid()) != 0 {
		t.Errorf("Valid() returned %d values after Clear(), want 0", len(r.Valid()))
	}
	if got := r.LastValue(); got != 15 {
		t.Errorf("LastValue() = %d after Clear(), want 15", got)
	}
}

func TestMean_IntegerTruncation(t *testing.T) {
	if got := Mean([]int64{1, 2}); got != 1 {
		t.Errorf("Mean([1 2]) = %d, want 1", got)
	}
}

func TestSum(t *testing.T) {
	if got := Sum([]float64{1.5, 2.5, -1}); got != 3 {
		t.Errorf("Sum() = %v, want 3", got)
	}
}
