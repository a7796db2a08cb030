package models

import (
	"fmt"
	"strings"
)

// Filter narrows the board shown for a day.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterToday      Filter = "today"
	FilterCompleted  Filter = "completed"
	FilterIncomplete Filter = "incomplete"
)

// Filters lists every filter in menu order.
var Filters = []Filter{FilterAll, FilterToday, FilterCompleted, FilterIncomplete}

func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid filter: %s (expected one of all, today, completed, incomplete)", s)
}

// Narrows reports whether the filter can hide trackers that are due.
func (f Filter) Narrows() bool {
	return f == FilterCompleted || f == FilterIncomplete
}

// Next cycles through Filters.
func (f Filter) Next() Filter {
	for i, cur := range Filters {
		if cur == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}
