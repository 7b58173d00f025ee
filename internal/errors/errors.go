// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"

	"github.com/detkit/framestats/pkg/frame"
)

// Sentinel errors for common conditions.
var (
	ErrEmptyBatch      = errors.New("batch is empty")
	ErrNoValidData     = errors.New("buffer has no valid data")
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrConsumerClosed  = errors.New("consumer is closed")
	ErrWriterClosed    = errors.New("snapshot writer is closed")
	ErrInvalidFrame    = errors.New("invalid frame")
	ErrUnknownSeries   = errors.New("unknown series")
	ErrConnectionLost  = errors.New("connection lost")
)

// FrameError represents an error while processing a consumed frame.
type FrameError struct {
	Partition frame.PartitionID
	Offset    int64
	Err       error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame error: partition=%s offset=%d: %v",
		e.Partition, e.Offset, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// ValidationError represents a frame message validation failure.
type ValidationError struct {
	Offset int64
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: offset=%d field=%s: %s",
		e.Offset, e.Field, e.Reason)
}

// ExportError represents a snapshot export failure.
type ExportError struct {
	Operation string
	Path      string
	Err       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error: operation=%s path=%s: %v",
		e.Operation, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Retryable defines an interface for errors that can indicate if they are retryable.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable checks if an error is retryable.
// It first checks if the error implements the Retryable interface,
// then falls back to checking specific error types and sentinel errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.IsRetryable()
	}

	if errors.Is(err, ErrConnectionLost) {
		return true
	}

	return false
}

// IsRetryable determines if an ExportError is retryable based on the operation type.
func (e *ExportError) IsRetryable() bool {
	// Write and upload operations are generally retryable
	return e.Operation == "write" || e.Operation == "upload" || e.Operation == "create"
}

// IsRetryable determines if a FrameError is retryable.
func (e *FrameError) IsRetryable() bool {
	return IsRetryable(e.Err)
}
