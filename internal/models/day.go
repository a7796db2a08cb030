package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/trackly/internal/constants"
)

// Day is a calendar day without a time component, formatted YYYY-MM-DD.
// The zero value is the empty string and is not a valid day.
type Day string

// DayOf normalizes a timestamp to its calendar day in the timestamp's own
// location, discarding the time of day.
func DayOf(t time.Time) Day {
	return Day(t.Format(constants.DateFormat))
}

// Today returns the current calendar day in local time.
func Today() Day {
	return DayOf(time.Now())
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return DayOf(t), nil
}

func (d Day) IsZero() bool {
	return d == ""
}

// Valid reports whether d is a real calendar day in canonical YYYY-MM-DD
// form, with no time component.
func (d Day) Valid() bool {
	parsed, err := ParseDay(string(d))
	return err == nil && parsed == d
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(constants.DateFormat, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Day) Weekday() Weekday {
	return WeekdayFromTime(d.Time(time.UTC).Weekday())
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Before and After compare lexically, which matches chronological order
// for the fixed-width format.
func (d Day) Before(other Day) bool {
	return d < other
}

func (d Day) After(other Day) bool {
	return d > other
}

func (d Day) String() string {
	return string(d)
}
