// Package analysis classifies sleep patterns, detects issues and composes advice
// from a user's recent sleep records. Everything here is pure: no I/O, no shared
// mutable state, safe for concurrent use.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord is returned when a record breaks the analyzer's preconditions.
var ErrInvalidRecord = errors.New("analysis: invalid record")

// durationTolerance is how far a stored duration may drift from End-Start.
const durationTolerance = 1.0 / 60.0

var validate = validator.New()

// Record is one completed sleep session.
type Record struct {
	Start         time.Time `json:"start" validate:"required"`
	End           time.Time `json:"end" validate:"required,gtfield=Start"`
	DurationHours float64   `json:"duration_hours"`
	Quality       *int      `json:"quality,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// NewRecord builds a record with the duration derived from the timestamps.
func NewRecord(start, end time.Time, quality *int) Record {
	return Record{
		Start:         start,
		End:           end,
		DurationHours: end.Sub(start).Hours(),
		Quality:       quality,
	}
}

// Validate checks ordering, quality range and that DurationHours agrees with End-Start.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if want := r.End.Sub(r.Start).Hours(); math.Abs(want-r.DurationHours) > durationTolerance {
		return fmt.Errorf("%w: duration %.2fh does not match interval %.2fh", ErrInvalidRecord, r.DurationHours, want)
	}
	return nil
}

// ValidateAll returns the first invalid record error, annotated with its index.
func ValidateAll(records []Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// Rated reports whether the record carries a quality score.
func (r Record) Rated() bool { return r.Quality != nil }

func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// Quality returns a pointer to q, for building records inline.
func Quality(q int) *int { return &q }
