// Package export implements snapshot file format encoders.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/detkit/framestats/internal/errors"
	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

// Ensure implementation satisfies interface at compile time.
var _ export.Encoder = (*ParquetEncoder)(nil)

// RowParquet represents the Parquet schema for statistics table rows.
// Uses native Parquet types for Athena compatibility; counters and ratios
// that are not applicable for a bin use optional columns for proper NULLs.
type RowParquet struct {
	// Bin identification
	PulseIDBin string `parquet:"pulse_id_bin,dict"`

	// Frame counters - always present
	NFrames   int64 `parquet:"nframes"`
	BadFrames int64 `parquet:"bad_frames"`

	// Conditional counters (using pointers for proper NULL handling)
	SatPixNFrames   *int64   `parquet:"sat_pix_nframes,optional"`
	LaserOnNFrames  *int64   `parquet:"laser_on_nframes,optional"`
	LaserOnHits     *int64   `parquet:"laser_on_hits,optional"`
	LaserOnRatio    *float64 `parquet:"laser_on_hits_ratio,optional"`
	LaserOffNFrames *int64   `parquet:"laser_off_nframes,optional"`
	LaserOffHits    *int64   `parquet:"laser_off_hits,optional"`
	LaserOffRatio   *float64 `parquet:"laser_off_hits_ratio,optional"`

	// Export metadata
	ExportedAt time.Time `parquet:"exported_at,timestamp(microsecond)"`
}

// ParquetEncoder implements export.Encoder for Apache Parquet columnar format.
// Uses the parquet-go library for full Athena/Hive compatibility.
// Supports multiple compression codecs: SNAPPY (default), GZIP, LZ4, ZSTD.
type ParquetEncoder struct {
	compressionName string
}

// NewParquetEncoder creates a new Parquet encoder with specified compression.
func NewParquetEncoder(compression string) *ParquetEncoder {
	return &ParquetEncoder{
		compressionName: compression,
	}
}

// compressionCodec converts string compression name to parquet WriterOption.
func compressionCodec(compression string) parquet.WriterOption {
	switch compression {
	case "snappy", "SNAPPY":
		return parquet.Compression(&parquet.Snappy)
	case "gzip", "GZIP":
		return parquet.Compression(&parquet.Gzip)
	case "lz4", "LZ4":
		return parquet.Compression(&parquet.Lz4Raw)
	case "zstd", "ZSTD":
		return parquet.Compression(&parquet.Zstd)
	case "uncompressed", "UNCOMPRESSED", "none", "NONE":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy) // Default to Snappy
	}
}

// Encode writes a snapshot to a Parquet file.
func (e *ParquetEncoder) Encode(filePath string, snapshot export.Snapshot) (*frame.ExportStats, error) {
	if len(snapshot.Rows) == 0 {
		return nil, errors.ErrNoValidData
	}
	rows := snapshotRows(snapshot)

	// Create output file
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	exportedAt := time.Now().UTC()

	// Convert rows to Parquet schema
	parquetRows := make([]RowParquet, len(rows))
	for i, row := range rows {
		parquetRows[i] = convertToParquetRow(row, exportedAt)
	}

	// Create schema from struct
	schema := parquet.SchemaOf(new(RowParquet))

	// Write Parquet file with compression
	writer := parquet.NewGenericWriter[RowParquet](
		file,
		schema,
		compressionCodec(e.compressionName),
		parquet.CreatedBy("framestats", "1.0", "0"),
	)

	// Write all rows
	if _, err := writer.Write(parquetRows); err != nil {
		writer.Close()
		file.Close()
		return nil, fmt.Errorf("failed to write rows: %w", err)
	}

	// Flush and close writer
	if err := writer.Close(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	// Close file before getting stats to ensure all data is flushed
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

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

// convertToParquetRow converts a table row to RowParquet with native types.
func convertToParquetRow(row frame.Row, exportedAt time.Time) RowParquet {
	return RowParquet{
		PulseIDBin:      row.Bin,
		NFrames:         row.NFrames,
		BadFrames:       row.BadFrames,
		SatPixNFrames:   row.SatPixNFrames,
		LaserOnNFrames:  row.LaserOnNFrames,
		LaserOnHits:     row.LaserOnHits,
		LaserOnRatio:    row.LaserOnRatio,
		LaserOffNFrames: row.LaserOffNFrames,
		LaserOffHits:    row.LaserOffHits,
		LaserOffRatio:   row.LaserOffRatio,
		ExportedAt:      exportedAt,
	}
}

// Format returns the file format.
func (e *ParquetEncoder) Format() frame.SnapshotFormat {
	return frame.FormatParquet
}

// FileExtension returns the file extension.
func (e *ParquetEncoder) FileExtension() string {
	return ".parquet"
}
