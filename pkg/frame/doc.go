// Package frame defines the core types for streamed detector frames.
//
// This package provides the public API for working with per-frame
// measurement records and their stream metadata.
//
// # Frame Structure
//
// A Frame combines a metadata record with an image descriptor:
//
//	f := &frame.Frame{
//	    Meta: frame.Metadata{
//	        PulseID:    &pulseID,
//	        IsHitFrame: true,
//	        BraggCounts: []float64{120.5, 98.0},
//	    },
//	    Image: frame.Image{Shape: []int{512, 1024}, Dtype: "uint16"},
//	}
//
// # Optional Fields
//
// Optional metadata fields use pointers so that "absent" and "zero" stay
// distinguishable; accessor methods apply pipeline defaults:
//
//	counts := f.Meta.BraggCountsOrDefault()   // [0] when absent
//	streaks := f.Meta.NumberOfStreaksOrDefault()
//
// The laser state is tri-state: on (true), off (false), or absent (nil).
//
// # Dummy Frames
//
// The upstream pipeline emits 2x2 placeholder images when no real data is
// available. These short-circuit all processing:
//
//	if f.Image.IsDummy() {
//	    return
//	}
//
// # Stream Position
//
// ConsumedFrame pairs a frame with its Kafka position and a commit
// callback, mirroring how the consumer hands frames to the ingest loop.
//
// # Table Rows
//
// Row is the rendered form of one bin of the statistics table. Counters
// and ratios that are not applicable for a bin are nil, which serializes
// to JSON null rather than 0.
package frame
