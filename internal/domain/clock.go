package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidClock = errors.New("time must be formatted as HH:MM")

// MinutesToClock formats a minute offset in [0, 1440) as "HH:MM".
func MinutesToClock(min int) (string, error) {
	if min < 0 || min >= MinutesPerDay {
		return "", fmt.Errorf("minute offset %d out of range", min)
	}
	return fmt.Sprintf("%02d:%02d", min/60, min%60), nil
}

// ClockToMinutes parses a strict "HH:MM" value into minutes since midnight.
func ClockToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, ErrInvalidClock
	}
	h, ok := twoDigits(s[0], s[1])
	if !ok || h > 23 {
		return 0, ErrInvalidClock
	}
	m, ok := twoDigits(s[3], s[4])
	if !ok || m > 59 {
		return 0, ErrInvalidClock
	}
	return h*60 + m, nil
}

// FormatBoundary is MinutesToClock extended with "24:00" for end-of-day, which
// is a valid closing time and booking end.
func FormatBoundary(min int) (string, error) {
	if min == MinutesPerDay {
		return "24:00", nil
	}
	return MinutesToClock(min)
}

func ParseBoundary(s string) (int, error) {
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	return ClockToMinutes(s)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
