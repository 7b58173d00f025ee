// Package frame defines the core types for streamed detector frames.
//
// A frame is one detector readout: a metadata record carrying derived
// per-frame quantities (pulse identifier, hit classification, streak
// statistics, Bragg counts) and an image descriptor. Frames arrive as
// JSON messages on a Kafka topic.
package frame

import (
	"fmt"
	"time"
)

// Metadata is the per-frame measurement record.
//
// All fields except IsHitFrame are optional on the wire; pointer fields
// distinguish "absent" from a zero value. Accessor methods apply the
// defaults the processing pipeline expects.
type Metadata struct {
	// PulseID is the stream-assigned identifier of the frame, used for
	// time-binning and out-of-order matching. Absent on malformed records.
	PulseID *uint64 `json:"pulse_id,omitempty"`

	// IsHitFrame marks frames classified as containing signal.
	IsHitFrame bool `json:"is_hit_frame"`

	// IsGoodFrame is false for frames flagged bad by the detector backend.
	IsGoodFrame *bool `json:"is_good_frame,omitempty"`

	// SaturatedPixels counts saturated pixels in the frame.
	SaturatedPixels *int64 `json:"saturated_pixels,omitempty"`

	// LaserOn is the pump laser state: on, off, or absent (tri-state).
	LaserOn *bool `json:"laser_on,omitempty"`

	// BraggCounts holds per-spot Bragg intensities.
	BraggCounts []float64 `json:"bragg_counts,omitempty"`

	// NumberOfStreaks counts streaks detected in the frame.
	NumberOfStreaks *int64 `json:"number_of_streaks,omitempty"`

	// StreakLengths holds the length of each detected streak.
	StreakLengths []float64 `json:"streak_lengths,omitempty"`
}

// BraggCountsOrDefault returns BraggCounts, or [0] when absent or empty.
func (m *Metadata) BraggCountsOrDefault() []float64 {
	if len(m.BraggCounts) == 0 {
		return []float64{0}
	}
	return m.BraggCounts
}

// NumberOfStreaksOrDefault returns NumberOfStreaks, or 0 when absent.
func (m *Metadata) NumberOfStreaksOrDefault() int64 {
	if m.NumberOfStreaks == nil {
		return 0
	}
	return *m.NumberOfStreaks
}

// StreakLengthsOrDefault returns StreakLengths, or [0] when absent or empty.
func (m *Metadata) StreakLengthsOrDefault() []float64 {
	if len(m.StreakLengths) == 0 {
		return []float64{0}
	}
	return m.StreakLengths
}

// Image describes the detector image associated with a frame. The
// statistics core only inspects the shape; pixel payloads travel on a
// separate channel.
type Image struct {
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype,omitempty"`
}

// Dummy frames carry a 2x2 placeholder image and are skipped entirely.
const (
	dummyRows = 2
	dummyCols = 2
)

// IsDummy reports whether the image is the placeholder frame the upstream
// pipeline emits when no real data is available.
func (im Image) IsDummy() bool {
	return len(im.Shape) == 2 && im.Shape[0] == dummyRows && im.Shape[1] == dummyCols
}

// Frame combines a metadata record with its image descriptor. This is the
// wire format of one Kafka message value.
type Frame struct {
	Meta  Metadata `json:"metadata"`
	Image Image    `json:"image"`
}

// StreamMetadata contains Kafka-specific metadata for a consumed frame.
type StreamMetadata struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Headers   map[string]string
	Timestamp time.Time
}

// PartitionID uniquely identifies a Kafka partition.
type PartitionID struct {
	Topic     string
	Partition int32
}

// String returns the partition ID in the format "topic-partition".
func (p PartitionID) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Partition)
}

// ConsumedFrame represents a frame consumed from the stream together with
// its stream position and a commit callback. Raw keeps the original
// message bytes for dead-letter publishing.
type ConsumedFrame struct {
	Frame      *Frame
	Raw        []byte
	Metadata   StreamMetadata
	CommitFunc func() error
}

// Row is one rendered row of the binned statistics table. Nil pointer
// fields mark counters and ratios that are not applicable for the bin,
// distinct from zero.
type Row struct {
	Bin             string   `json:"pulse_id_bin"`
	NFrames         int64    `json:"nframes"`
	BadFrames       int64    `json:"bad_frames"`
	SatPixNFrames   *int64   `json:"sat_pix_nframes"`
	LaserOnNFrames  *int64   `json:"laser_on_nframes"`
	LaserOnHits     *int64   `json:"laser_on_hits"`
	LaserOnRatio    *float64 `json:"laser_on_hits_ratio"`
	LaserOffNFrames *int64   `json:"laser_off_nframes"`
	LaserOffHits    *int64   `json:"laser_off_hits"`
	LaserOffRatio   *float64 `json:"laser_off_hits_ratio"`
}

// SnapshotFormat represents the snapshot export file format.
type SnapshotFormat string

const (
	FormatParquet SnapshotFormat = "parquet"
	FormatAvro    SnapshotFormat = "avro"
)

// ExportStats contains statistics about an exported snapshot file.
type ExportStats struct {
	RowCount  int
	SizeBytes int64
	WrittenAt time.Time
}
