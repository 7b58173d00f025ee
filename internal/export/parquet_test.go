package export

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	apperrors "github.com/detkit/framestats/internal/errors"
	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

func TestParquetEncoder_EncodeRoundTrip(t *testing.T) {
	encoder := NewParquetEncoder("snappy")

	filePath := filepath.Join(t.TempDir(), "snapshot.parquet")
	stats, err := encoder.Encode(filePath, testSnapshot())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if stats.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", stats.RowCount)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", stats.SizeBytes)
	}

	rows, err := parquet.ReadFile[RowParquet](filePath)
	if err != nil {
		t.Fatalf("failed to read parquet file: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}

	if rows[0].PulseIDBin != "10" {
		t.Errorf("rows[0].PulseIDBin = %s, want 10", rows[0].PulseIDBin)
	}
	if rows[0].NFrames != 20 {
		t.Errorf("rows[0].NFrames = %d, want 20", rows[0].NFrames)
	}
	if rows[0].LaserOnRatio == nil || *rows[0].LaserOnRatio != 0.5 {
		t.Errorf("rows[0].LaserOnRatio = %v, want 0.5", rows[0].LaserOnRatio)
	}
	if rows[1].SatPixNFrames != nil {
		t.Errorf("rows[1].SatPixNFrames = %v, want nil", rows[1].SatPixNFrames)
	}
	if rows[2].PulseIDBin != "Summary" {
		t.Errorf("rows[2].PulseIDBin = %s, want Summary", rows[2].PulseIDBin)
	}
}

func TestParquetEncoder_EmptySnapshot(t *testing.T) {
	encoder := NewParquetEncoder("snappy")

	filePath := filepath.Join(t.TempDir(), "snapshot.parquet")
	if _, err := encoder.Encode(filePath, export.Snapshot{}); !errors.Is(err, apperrors.ErrNoValidData) {
		t.Errorf("Encode() error = %v, want ErrNoValidData", err)
	}
}

func TestParquetEncoder_CompressionCodecs(t *testing.T) {
	// Unknown codecs fall back to snappy rather than failing the export.
	codecs := []string{"snappy", "gzip", "lz4", "zstd", "uncompressed", "bogus"}

	for _, codec := range codecs {
		t.Run(codec, func(t *testing.T) {
			encoder := NewParquetEncoder(codec)
			filePath := filepath.Join(t.TempDir(), "snapshot.parquet")

			if _, err := encoder.Encode(filePath, testSnapshot()); err != nil {
				t.Errorf("Encode() with %s error = %v", codec, err)
			}
		})
	}
}

func TestParquetEncoder_FormatAndExtension(t *testing.T) {
	encoder := NewParquetEncoder("snappy")

	if encoder.Format() != frame.FormatParquet {
		t.Errorf("Format() = %v, want %v", encoder.Format(), frame.FormatParquet)
	}
	if encoder.FileExtension() != ".parquet" {
		t.Errorf("FileExtension() = %v, want .parquet", encoder.FileExtension())
	}
}
