// Package validator provides frame message validation.
package validator

import (
	"math"

	"github.com/detkit/framestats/internal/errors"
	"github.com/detkit/framestats/pkg/frame"
)

// FrameValidator validates consumed frame messages before they reach the
// statistics core. A missing pulse identifier is deliberately not a
// validation failure: the core tolerates those records with a warning.
type FrameValidator struct{}

// NewFrameValidator creates a new frame validator.
func NewFrameValidator() *FrameValidator {
	return &FrameValidator{}
}

// Validate validates a consumed frame.
func (v *FrameValidator) Validate(f *frame.Frame, offset int64) error {
	if f == nil {
		return &errors.ValidationError{
			Offset: offset,
			Field:  "frame",
			Reason: "frame is nil",
		}
	}

	if len(f.Image.Shape) == 0 {
		return &errors.ValidationError{
			Offset: offset,
			Field:  "image.shape",
			Reason: "required field is missing",
		}
	}
	for _, dim := range f.Image.Shape {
		if dim <= 0 {
			return &errors.ValidationError{
				Offset: offset,
				Field:  "image.shape",
				Reason: "dimensions must be positive",
			}
		}
	}

	if f.Meta.SaturatedPixels != nil && *f.Meta.SaturatedPixels < 0 {
		return &errors.ValidationError{
			Offset: offset,
			Field:  "saturated_pixels",
			Reason: "must be non-negative",
		}
	}

	if f.Meta.NumberOfStreaks != nil && *f.Meta.NumberOfStreaks < 0 {
		return &errors.ValidationError{
			Offset: offset,
			Field:  "number_of_streaks",
			Reason: "must be non-negative",
		}
	}

	for _, c := range f.Meta.BraggCounts {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return &errors.ValidationError{
				Offset: offset,
				Field:  "bragg_counts",
				Reason: "values must be finite",
			}
		}
	}

	for _, l := range f.Meta.StreakLengths {
		if math.IsNaN(l) || math.IsInf(l, 0) || l < 0 {
			return &errors.ValidationError{
				Offset: offset,
				Field:  "streak_lengths",
				Reason: "values must be finite and non-negative",
			}
		}
	}

	return nil
}
