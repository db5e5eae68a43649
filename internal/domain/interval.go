package domain

import "errors"

const MinutesPerDay = 24 * 60

var ErrInvalidInterval = errors.New("interval must satisfy 0 <= start < end <= 1440")

// Interval is a half-open [Start, End) span of minutes since local midnight.
type Interval struct {
	Start int
	End   int
}

func NewInterval(start, end int) (Interval, error) {
	if start < 0 || start >= MinutesPerDay || end <= start || end > MinutesPerDay {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether i and other share at least one minute. Intervals
// that only touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

func (i Interval) Minutes() int {
	return i.End - i.Start
}
