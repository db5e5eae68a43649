package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dayKeyLayout = "2006-01-02"

var ErrInvalidDayKey = errors.New("day must be formatted as YYYY-MM-DD")

// DayKey identifies a calendar date in the shop's timezone ("2006-01-02").
// Bookings are bucketed by it.
type DayKey string

// DayKeyOf returns the key of the calendar date t falls on in loc. Only the
// year, month and day of t.In(loc) contribute; a nil loc means UTC.
func DayKeyOf(t time.Time, loc *time.Location) DayKey {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return DayKey(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

func ParseDayKey(s string) (DayKey, error) {
	t, err := time.Parse(dayKeyLayout, strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidDayKey
	}
	return DayKey(t.Format(dayKeyLayout)), nil
}

func (d DayKey) Valid() bool {
	_, err := d.date()
	return err == nil
}

func (d DayKey) Weekday() (time.Weekday, error) {
	t, err := d.date()
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// Before reports whether d is an earlier calendar date than other.
func (d DayKey) Before(other DayKey) bool {
	return string(d) < string(other)
}

func (d DayKey) String() string {
	return string(d)
}

func (d DayKey) date() (time.Time, error) {
	t, err := time.Parse(dayKeyLayout, string(d))
	if err != nil {
		return time.Time{}, ErrInvalidDayKey
	}
	return t, nil
}
