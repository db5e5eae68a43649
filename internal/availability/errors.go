package availability

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"slotkeeper/internal/domain"
)

var (
	ErrDayClosed    = errors.New("the shop is closed on that day")
	ErrOutsideHours = errors.New("the booking falls outside opening hours")
	ErrOffGrid      = errors.New("the start time is not on the slot grid")
)

// ConfigurationError reports a shop configuration or catalog entry that slots
// cannot be computed from. It is never folded into an empty result.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ConflictError reports that a proposed interval overlaps an existing booking
// on the same day. Callers recover by recomputing slots.
type ConflictError struct {
	Day       domain.DayKey
	Proposed  domain.Interval
	BookingID uuid.UUID
	Existing  domain.Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"slot [%d,%d) on %s overlaps booking %s [%d,%d)",
		e.Proposed.Start, e.Proposed.End, e.Day, e.BookingID, e.Existing.Start, e.Existing.End,
	)
}
