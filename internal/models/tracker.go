package models

import "time"

// Category is a named group of trackers. Titles are unique by exact match.
type Category struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Tracker is a habit or event definition. Edits replace every field; only
// the ID is fixed at creation.
type Tracker struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ColorHex   string   `json:"color_hex"`
	Emoji      string   `json:"emoji"`
	Schedule   Schedule `json:"schedule,omitempty"`
	CategoryID string   `json:"category_id"`
}

// DueOn reports whether the tracker is scheduled on the day. Unscheduled
// trackers are never due, and neither is a malformed day.
func (t Tracker) DueOn(d Day) bool {
	if !d.Valid() {
		return false
	}
	return t.Schedule.Contains(d.Weekday())
}

// Record marks a tracker complete on one day; (TrackerID, Day) is its key.
type Record struct {
	TrackerID string `json:"tracker_id"`
	Day       Day    `json:"day"`
}
