// Package storage implements snapshot writer implementations.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	exportenc "github.com/detkit/framestats/internal/export"
	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

// Ensure implementation satisfies interface at compile time.
var _ export.Writer = (*FileWriter)(nil)

// MetricsCollector defines metrics operations for snapshot storage.
type MetricsCollector interface {
	IncSnapshotsExported(backend string, format string, status string)
	ObserveExportDuration(backend string, format string, duration float64)
	IncExportErrors(backend string, operation string)
}

// FileConfig contains local filesystem configuration.
type FileConfig struct {
	BasePath string
}

// FileWriter implements export.Writer for local filesystem storage.
// It provides thread-safe snapshot writing with support for multiple
// formats (Avro, Parquet) and compression options.
type FileWriter struct {
	basePath       string
	encoderFactory *exportenc.Factory
	logger         *slog.Logger
	metrics        MetricsCollector
	mu             sync.Mutex
	fileSequence   int    // Sequence counter for files created in the same second
	lastTimestamp  string // Last timestamp used for filename generation
}

// NewFileWriter creates a new filesystem snapshot writer.
func NewFileWriter(
	config FileConfig,
	format frame.SnapshotFormat,
	compression string,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*FileWriter, error) {
	// Ensure base path exists
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	// Create encoder factory
	encoderFactory := exportenc.NewFactory(format, compression)

	// Validate encoder can be created
	if _, err := encoderFactory.CreateEncoder(); err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	logger.Info("filesystem snapshot writer created",
		"base_path", config.BasePath,
		"format", format,
		"compression", compression,
	)

	return &FileWriter{
		basePath:       config.BasePath,
		encoderFactory: encoderFactory,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Write writes a snapshot to the filesystem.
func (w *FileWriter) Write(
	ctx context.Context,
	snapshot export.Snapshot,
	path string,
) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	startTime := time.Now()

	// Create encoder
	snapshotEncoder, err := w.encoderFactory.CreateEncoder()
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("file", "encoder_create")
		}
		return 0, fmt.Errorf("failed to create encoder: %w", err)
	}

	// Strip file:// protocol prefix if present
	cleanPath := path
	if strings.HasPrefix(path, "file://") {
		cleanPath = strings.TrimPrefix(path, "file://")
	}

	// Generate timestamped filename: cbd_stats_YYYYMMDD_HHMMSS_NNN.{ext}
	now := time.Now()
	timestamp := now.Format("20060102_150405")

	// Increment sequence if same timestamp as last file
	if timestamp == w.lastTimestamp {
		w.fileSequence++
	} else {
		w.fileSequence = 1
		w.lastTimestamp = timestamp
	}

	filename := fmt.Sprintf("cbd_stats_%s_%03d%s", timestamp, w.fileSequence, snapshotEncoder.FileExtension())

	// Convert relative path to absolute and add timestamped filename
	dir := filepath.Join(w.basePath, cleanPath)
	fullPath := filepath.Join(dir, filename)

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("file", "mkdir")
		}
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	// Encode and write the snapshot
	stats, err := snapshotEncoder.Encode(fullPath, snapshot)
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("file", "encode")
		}
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	duration := time.Since(startTime)

	w.logger.Info("wrote snapshot to file",
		"path", fullPath,
		"row_count", stats.RowCount,
		"file_size", stats.SizeBytes,
		"format", snapshotEncoder.Format(),
		"total_duration_ms", duration.Milliseconds(),
	)

	// Update metrics
	if w.metrics != nil {
		w.metrics.IncSnapshotsExported("file", string(snapshotEncoder.Format()), "success")
		w.metrics.ObserveExportDuration("file", string(snapshotEncoder.Format()), duration.Seconds())
	}

	return stats.SizeBytes, nil
}

// Close closes the writer.
func (w *FileWriter) Close() error {
	w.logger.Info("closing filesystem snapshot writer")
	return nil
}
