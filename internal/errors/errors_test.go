package errors

import (
	"errors"
	"testing"

	"github.com/detkit/framestats/pkg/frame"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrEmptyBatch", ErrEmptyBatch},
		{"ErrNoValidData", ErrNoValidData},
		{"ErrInvalidCapacity", ErrInvalidCapacity},
		{"ErrConsumerClosed", ErrConsumerClosed},
		{"ErrWriterClosed", ErrWriterClosed},
		{"ErrInvalidFrame", ErrInvalidFrame},
		{"ErrUnknownSeries", ErrUnknownSeries},
		{"ErrConnectionLost", ErrConnectionLost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Errorf("%s should not be nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s should have an error message", tt.name)
			}
		})
	}
}

func TestFrameError(t *testing.T) {
	baseErr := errors.New("base error")
	frameErr := &FrameError{
		Partition: frame.PartitionID{Topic: "frames", Partition: 0},
		Offset:    100,
		Err:       baseErr,
	}

	if frameErr.Error() == "" {
		t.Error("FrameError should have an error message")
	}

	if !errors.Is(frameErr, baseErr) {
		t.Error("FrameError should wrap base error")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Offset: 42,
		Field:  "image.shape",
		Reason: "required field missing",
	}

	if err.Error() == "" {
		t.Error("ValidationError should have an error message")
	}
}

func TestExportError(t *testing.T) {
	baseErr := errors.New("disk full")
	exportErr := &ExportError{
		Operation: "write",
		Path:      "/data/cbd_stats.parquet",
		Err:       baseErr,
	}

	if exportErr.Error() == "" {
		t.Error("ExportError should have an error message")
	}

	if !errors.Is(exportErr, baseErr) {
		t.Error("ExportError should wrap base error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"connection lost", ErrConnectionLost, true},
		{"plain error", errors.New("boom"), false},
		{"retryable export write", &ExportError{Operation: "write", Err: errors.New("x")}, true},
		{"retryable export upload", &ExportError{Operation: "upload", Err: errors.New("x")}, true},
		{"non-retryable export", &ExportError{Operation: "stat", Err: errors.New("x")}, false},
		{"frame error wrapping connection lost", &FrameError{Err: ErrConnectionLost}, true},
		{"frame error wrapping plain error", &FrameError{Err: errors.New("x")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
