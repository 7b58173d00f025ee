// Package export implements encoder factory for creating snapshot encoders.
package export

import (
	"fmt"

	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

// Factory creates encoders based on format and configuration.
type Factory struct {
	format      frame.SnapshotFormat
	compression string
}

// NewFactory creates a new encoder factory.
func NewFactory(format frame.SnapshotFormat, compression string) *Factory {
	return &Factory{
		format:      format,
		compression: compression,
	}
}

// CreateEncoder creates an encoder based on the configured format.
func (f *Factory) CreateEncoder() (export.Encoder, error) {
	switch f.format {
	case frame.FormatParquet:
		return NewParquetEncoder(f.compression), nil
	case frame.FormatAvro:
		return NewAvroEncoder(f.compression)
	default:
		return nil, fmt.Errorf("unsupported snapshot format: %s", f.format)
	}
}

// SupportedFormats returns a list of supported snapshot formats.
func SupportedFormats() []frame.SnapshotFormat {
	return []frame.SnapshotFormat{
		frame.FormatParquet,
		frame.FormatAvro,
	}
}

// SupportedCompressions returns supported compression codecs for a given format.
func SupportedCompressions(format frame.SnapshotFormat) []string {
	switch format {
	case frame.FormatParquet:
		return []string{"uncompressed", "snappy", "gzip", "lz4", "zstd"}
	case frame.FormatAvro:
		return []string{"uncompressed", "gzip"}
	default:
		return []string{}
	}
}

// DefaultCompression returns the default compression for a format.
func DefaultCompression(format frame.SnapshotFormat) string {
	switch format {
	case frame.FormatParquet:
		return "snappy"
	case frame.FormatAvro:
		return "gzip"
	default:
		return "uncompressed"
	}
}
