// Package availability computes offerable start times for a service on a day
// and re-validates a chosen start before it is committed. Every function is
// pure: inputs are read, never mutated, and nothing is cached between calls.
package availability

import "slotkeeper/internal/domain"

// CheckConfig returns a *ConfigurationError when cfg cannot describe a
// working day.
func CheckConfig(cfg domain.ShopConfig) error {
	switch {
	case cfg.SlotGranularity <= 0:
		return &ConfigurationError{Field: "slot_granularity", Reason: "must be positive"}
	case cfg.SlotGranularity > domain.MinutesPerDay:
		return &ConfigurationError{Field: "slot_granularity", Reason: "must not exceed a day"}
	case cfg.OpeningMinute < 0 || cfg.OpeningMinute >= domain.MinutesPerDay:
		return &ConfigurationError{Field: "opening", Reason: "must be within the day"}
	case cfg.ClosingMinute <= 0 || cfg.ClosingMinute > domain.MinutesPerDay:
		return &ConfigurationError{Field: "closing", Reason: "must be within the day"}
	case cfg.OpeningMinute >= cfg.ClosingMinute:
		return &ConfigurationError{Field: "opening", Reason: "must be before closing"}
	}
	return nil
}

func checkService(svc domain.Service) error {
	if svc.DurationMinutes <= 0 {
		return &ConfigurationError{Field: "service.duration", Reason: "must be positive"}
	}
	return nil
}

// ComputeAvailableSlots returns, in ascending order, every start offset on day
// at which svc fits inside opening hours without overlapping a booking filed
// under the same day key. bookings may span any number of days.
//
// A day outside cfg.ActiveWeekdays, or a service longer than the open window,
// yields no slots. An invalid configuration yields a *ConfigurationError.
func ComputeAvailableSlots(cfg domain.ShopConfig, svc domain.Service, day domain.DayKey, bookings []domain.Booking) ([]int, error) {
	if err := CheckConfig(cfg); err != nil {
		return nil, err
	}
	if err := checkService(svc); err != nil {
		return nil, err
	}
	weekday, err := day.Weekday()
	if err != nil {
		return nil, err
	}

	slots := []int{}
	if !cfg.ActiveWeekdays.Contains(weekday) || !fitsWindow(cfg, svc) {
		return slots, nil
	}

	// Bounds stay within [0, 1440], so neither the limit nor the step can
	// overflow.
	last := cfg.ClosingMinute - svc.DurationMinutes
	busy := busyOn(day, bookings)
	for start := cfg.OpeningMinute; start <= last; start += cfg.SlotGranularity {
		candidate := domain.Interval{Start: start, End: start + svc.DurationMinutes}
		if !overlapsAny(candidate, busy) {
			slots = append(slots, start)
		}
	}
	return slots, nil
}

// ValidateProposedBooking checks a chosen start against the same rules
// ComputeAvailableSlots applies and returns the interval to store. Rejections
// are ErrDayClosed, ErrOutsideHours, ErrOffGrid or a *ConflictError.
func ValidateProposedBooking(cfg domain.ShopConfig, svc domain.Service, day domain.DayKey, start int, bookings []domain.Booking) (domain.Interval, error) {
	if err := CheckConfig(cfg); err != nil {
		return domain.Interval{}, err
	}
	if err := checkService(svc); err != nil {
		return domain.Interval{}, err
	}
	weekday, err := day.Weekday()
	if err != nil {
		return domain.Interval{}, err
	}
	if !cfg.ActiveWeekdays.Contains(weekday) {
		return domain.Interval{}, ErrDayClosed
	}

	if !fitsWindow(cfg, svc) || start < cfg.OpeningMinute || start > cfg.ClosingMinute-svc.DurationMinutes {
		return domain.Interval{}, ErrOutsideHours
	}
	proposed := domain.Interval{Start: start, End: start + svc.DurationMinutes}
	if (proposed.Start-cfg.OpeningMinute)%cfg.SlotGranularity != 0 {
		return domain.Interval{}, ErrOffGrid
	}

	if err := CheckConflict(day, proposed, bookings); err != nil {
		return domain.Interval{}, err
	}
	return proposed, nil
}

// CheckConflict returns a *ConflictError naming the first booking on day whose
// interval overlaps proposed, or nil.
func CheckConflict(day domain.DayKey, proposed domain.Interval, bookings []domain.Booking) error {
	for _, b := range bookings {
		if b.Day != day {
			continue
		}
		if proposed.Overlaps(b.Interval()) {
			return &ConflictError{Day: day, Proposed: proposed, BookingID: b.ID, Existing: b.Interval()}
		}
	}
	return nil
}

func fitsWindow(cfg domain.ShopConfig, svc domain.Service) bool {
	return svc.DurationMinutes <= cfg.ClosingMinute-cfg.OpeningMinute
}

func busyOn(day domain.DayKey, bookings []domain.Booking) []domain.Interval {
	busy := make([]domain.Interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Day == day {
			busy = append(busy, b.Interval())
		}
	}
	return busy
}

func overlapsAny(candidate domain.Interval, busy []domain.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
