// Package export defines interfaces for statistics snapshot export.
//
// A snapshot is the full binned statistics table (bins plus summary row)
// at one point in time, written once and never read back by this service.
package export

import (
	"context"

	"github.com/detkit/framestats/pkg/frame"
)

// Snapshot is one export unit: the table rows followed by the summary.
type Snapshot struct {
	Rows    []frame.Row
	Summary frame.Row
}

// Encoder encodes a snapshot to a specific file format.
type Encoder interface {
	// Encode writes the snapshot to a file and returns file statistics.
	Encode(filePath string, snapshot Snapshot) (*frame.ExportStats, error)

	// Format returns the file format this encoder produces.
	Format() frame.SnapshotFormat

	// FileExtension returns the file extension (e.g., ".parquet", ".avro").
	FileExtension() string
}

// Writer writes snapshots to a storage backend.
type Writer interface {
	// Write writes the snapshot to storage at the specified path.
	// Returns the number of bytes written.
	Write(ctx context.Context, snapshot Snapshot, path string) (int64, error)

	// Close closes the writer and releases resources.
	Close() error
}

// Router determines storage paths for snapshots.
type Router interface {
	// Route returns the storage path prefix for a snapshot taken at the
	// given Unix timestamp (seconds).
	Route(timestamp int64) string
}
