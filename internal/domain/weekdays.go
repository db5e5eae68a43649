package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a bitmask over time.Weekday (bit 0 = Sunday).
type WeekdaySet uint8

const AllWeekdays WeekdaySet = 1<<7 - 1

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s |= 1 << uint(d)
		}
	}
	return s
}

func (s WeekdaySet) Contains(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s WeekdaySet) Names() []string {
	days := s.Days()
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, strings.ToLower(d.String()))
	}
	return out
}

// ParseWeekday accepts full or three-letter English names, case-insensitive.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, n := range names {
		d, err := ParseWeekday(n)
		if err != nil {
			return 0, err
		}
		s |= NewWeekdaySet(d)
	}
	return s, nil
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseWeekdaySet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s WeekdaySet) Value() (driver.Value, error) {
	return int64(s & AllWeekdays), nil
}

func (s *WeekdaySet) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*s = WeekdaySet(v) & AllWeekdays
	case int32:
		*s = WeekdaySet(v) & AllWeekdays
	case nil:
		*s = 0
	default:
		return fmt.Errorf("weekday set: unsupported scan type %T", src)
	}
	return nil
}
