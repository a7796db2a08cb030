package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of the week encoded 1=Sunday .. 7=Saturday. The code is
// what gets persisted.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// UIOrder is the Monday-first order used when listing weekdays.
var UIOrder = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayFromTime converts a time.Weekday (0=Sunday) to a Weekday.
func WeekdayFromTime(wd time.Weekday) Weekday {
	return Weekday(wd) + 1
}

func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) TimeWeekday() time.Weekday {
	return time.Weekday(w - 1)
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return w.TimeWeekday().String()
}

// Short returns the three letter abbreviation ("Mon").
func (w Weekday) Short() string {
	return w.String()[:3]
}

var weekdayNames = map[string]Weekday{
	"sun":       Sunday,
	"sunday":    Sunday,
	"mon":       Monday,
	"monday":    Monday,
	"tue":       Tuesday,
	"tuesday":   Tuesday,
	"wed":       Wednesday,
	"wednesday": Wednesday,
	"thu":       Thursday,
	"thursday":  Thursday,
	"fri":       Friday,
	"friday":    Friday,
	"sat":       Saturday,
	"saturday":  Saturday,
}

// ParseWeekday accepts a day name, its abbreviation, or the numeric code 1-7.
func ParseWeekday(s string) (Weekday, error) {
	part := strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[part]; ok {
		return wd, nil
	}
	num, err := strconv.Atoi(part)
	if err == nil && Weekday(num).Valid() {
		return Weekday(num), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ParseSchedule parses a comma-separated weekday list. The shorthands
// "daily", "weekdays" and "weekends" are accepted. An empty string yields an
// unscheduled (nil) schedule.
func ParseSchedule(s string) (Schedule, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return nil, nil
	case "daily", "every day":
		return NewSchedule(Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday), nil
	case "weekdays":
		return NewSchedule(Monday, Tuesday, Wednesday, Thursday, Friday), nil
	case "weekends":
		return NewSchedule(Saturday, Sunday), nil
	}

	var days []Weekday
	for _, part := range strings.Split(s, ",") {
		wd, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		days = append(days, wd)
	}
	return NewSchedule(days...), nil
}

// Schedule is the set of weekdays on which a tracker is due. It is kept
// sorted by code without duplicates; nil means unscheduled.
type Schedule []Weekday

// NewSchedule builds a normalized schedule, dropping invalid and repeated
// days. It returns nil when no valid day remains.
func NewSchedule(days ...Weekday) Schedule {
	seen := make(map[Weekday]bool, len(days))
	var out Schedule
	for _, d := range days {
		if !d.Valid() || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScheduleFromCodes builds a schedule from persisted integer codes.
func ScheduleFromCodes(codes []int) Schedule {
	days := make([]Weekday, 0, len(codes))
	for _, c := range codes {
		days = append(days, Weekday(c))
	}
	return NewSchedule(days...)
}

func (s Schedule) IsEmpty() bool {
	return len(s) == 0
}

func (s Schedule) Contains(w Weekday) bool {
	for _, d := range s {
		if d == w {
			return true
		}
	}
	return false
}

func (s Schedule) Codes() []int {
	if len(s) == 0 {
		return nil
	}
	codes := make([]int, len(s))
	for i, d := range s {
		codes[i] = int(d)
	}
	return codes
}

// Encode renders the schedule for a text column ("2,4,6"). Unscheduled
// trackers encode to the empty string.
func (s Schedule) Encode() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

// DecodeSchedule reverses Encode.
func DecodeSchedule(encoded string) (Schedule, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	var codes []int
	for _, part := range strings.Split(encoded, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || !Weekday(code).Valid() {
			return nil, fmt.Errorf("invalid weekday code %q in schedule", part)
		}
		codes = append(codes, code)
	}
	return ScheduleFromCodes(codes), nil
}

func (s Schedule) String() string {
	switch {
	case len(s) == 0:
		return "not set"
	case len(s) == 7:
		return "every day"
	}
	var names []string
	for _, wd := range UIOrder {
		if s.Contains(wd) {
			names = append(names, wd.Short())
		}
	}
	return strings.Join(names, ", ")
}
