// Package export implements snapshot file format encoders.
package export

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/detkit/framestats/internal/errors"
	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

// Ensure implementation satisfies interface at compile time.
var _ export.Encoder = (*AvroEncoder)(nil)

// AvroEncoder implements export.Encoder for Apache Avro binary format.
// It supports optional gzip compression and produces OCF (Object Container
// File) output readable by Apache Spark and other Avro tooling. Counters
// and ratios that are not applicable for a bin are encoded as Avro nulls.
type AvroEncoder struct {
	codec       *goavro.Codec
	compression string
}

// NewAvroEncoder creates a new Avro encoder with specified compression.
func NewAvroEncoder(compression string) (*AvroEncoder, error) {
	schema := avroSchema()
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}

	return &AvroEncoder{
		codec:       codec,
		compression: compression,
	}, nil
}

// avroSchema returns the Avro schema for statistics table rows.
func avroSchema() string {
	return `{
		"type": "record",
		"name": "StatisticsRow",
		"namespace": "io.detkit.framestats",
		"fields": [
			{"name": "pulse_id_bin", "type": "string"},
			{"name": "nframes", "type": "long"},
			{"name": "bad_frames", "type": "long"},
			{"name": "sat_pix_nframes", "type": ["null", "long"], "default": null},
			{"name": "laser_on_nframes", "type": ["null", "long"], "default": null},
			{"name": "laser_on_hits", "type": ["null", "long"], "default": null},
			{"name": "laser_on_hits_ratio", "type": ["null", "double"], "default": null},
			{"name": "laser_off_nframes", "type": ["null", "long"], "default": null},
			{"name": "laser_off_hits", "type": ["null", "long"], "default": null},
			{"name": "laser_off_hits_ratio", "type": ["null", "double"], "default": null},
			{"name": "exported_at", "type": "string"}
		]
	}`
}

// Encode writes a snapshot to an Avro file.
func (e *AvroEncoder) Encode(filePath string, snapshot export.Snapshot) (*frame.ExportStats, error) {
	if len(snapshot.Rows) == 0 {
		return nil, errors.ErrNoValidData
	}
	rows := snapshotRows(snapshot)

	// Create output file
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	var writer io.Writer = file
	var gzipWriter *gzip.Writer

	// Apply compression if specified
	if e.compression == "gzip" || e.compression == "GZIP" {
		gzipWriter = gzip.NewWriter(file)
		writer = gzipWriter
		defer gzipWriter.Close()
	}

	// Create OCF writer (Object Container File)
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:     writer,
		Codec: e.codec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OCF writer: %w", err)
	}

	exportedAt := time.Now().UTC().Format(time.RFC3339Nano)

	// Convert and write rows
	for _, row := range rows {
		avroMap := convertToAvroMap(row, exportedAt)

		if err := ocfWriter.Append([]interface{}{avroMap}); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	// Ensure all data is flushed
	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	// Get file info
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	stats := &frame.ExportStats{
		RowCount:  len(rows),
		SizeBytes: fileInfo.Size(),
		WrittenAt: time.Now(),
	}

	return stats, nil
}

// convertToAvroMap converts a table row to its Avro map representation.
func convertToAvroMap(row frame.Row, exportedAt string) map[string]interface{} {
	avroMap := map[string]interface{}{
		"pulse_id_bin": row.Bin,
		"nframes":      row.NFrames,
		"bad_frames":   row.BadFrames,
		"exported_at":  exportedAt,
	}

	// Optional fields - use goavro.Union for nullable fields
	setNullableLong(avroMap, "sat_pix_nframes", row.SatPixNFrames)
	setNullableLong(avroMap, "laser_on_nframes", row.LaserOnNFrames)
	setNullableLong(avroMap, "laser_on_hits", row.LaserOnHits)
	setNullableDouble(avroMap, "laser_on_hits_ratio", row.LaserOnRatio)
	setNullableLong(avroMap, "laser_off_nframes", row.LaserOffNFrames)
	setNullableLong(avroMap, "laser_off_hits", row.LaserOffHits)
	setNullableDouble(avroMap, "laser_off_hits_ratio", row.LaserOffRatio)

	return avroMap
}

func setNullableLong(m map[string]interface{}, key string, v *int64) {
	if v != nil {
		m[key] = goavro.Union("long", *v)
	} else {
		m[key] = nil
	}
}

func setNullableDouble(m map[string]interface{}, key string, v *float64) {
	if v != nil {
		m[key] = goavro.Union("double", *v)
	} else {
		m[key] = nil
	}
}

// EncodeToBytes encodes a snapshot to bytes (useful for testing).
func (e *AvroEncoder) EncodeToBytes(snapshot export.Snapshot) ([]byte, error) {
	if len(snapshot.Rows) == 0 {
		return nil, errors.ErrNoValidData
	}
	rows := snapshotRows(snapshot)

	var buf bytes.Buffer
	var writer io.Writer = &buf

	// Apply compression if specified
	var gzipWriter *gzip.Writer
	if e.compression == "gzip" || e.compression == "GZIP" {
		gzipWriter = gzip.NewWriter(&buf)
		writer = gzipWriter
	}

	// Create OCF writer
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:     writer,
		Codec: e.codec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OCF writer: %w", err)
	}

	exportedAt := time.Now().UTC().Format(time.RFC3339Nano)

	for _, row := range rows {
		avroMap := convertToAvroMap(row, exportedAt)

		if err := ocfWriter.Append([]interface{}{avroMap}); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// Format returns the file format.
func (e *AvroEncoder) Format() frame.SnapshotFormat {
	return frame.FormatAvro
}

// FileExtension returns the file extension.
func (e *AvroEncoder) FileExtension() string {
	return ".avro"
}

// snapshotRows flattens a snapshot into its export row order: per-bin rows
// first, the summary row last.
func snapshotRows(snapshot export.Snapshot) []frame.Row {
	rows := make([]frame.Row, 0, len(snapshot.Rows)+1)
	rows = append(rows, snapshot.Rows...)
	rows = append(rows, snapshot.Summary)
	return rows
}
