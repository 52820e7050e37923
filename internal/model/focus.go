package model

import "time"

// FocusStatus is the outcome of a focus check.
type FocusStatus string

const (
	FocusFocused    FocusStatus = "focused"
	FocusDistracted FocusStatus = "distracted"
)

// ParseFocusStatus maps "focused" to FocusFocused and anything else to
// FocusDistracted.
func ParseFocusStatus(s string) FocusStatus {
	if FocusStatus(s) == FocusFocused {
		return FocusFocused
	}
	return FocusDistracted
}

// DefaultFocusDuration is assumed for sessions without a recorded duration.
const DefaultFocusDuration = 60 * time.Second

// FocusSession records what the user was doing during one focus check.
type FocusSession struct {
	ID              string      `json:"id"`
	Status          FocusStatus `json:"status"`
	AppOrSite       string      `json:"app_or_site"`
	Description     string      `json:"description"`
	Message         *string     `json:"message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	DurationSeconds *int64      `json:"duration_seconds,omitempty"`
}

// NewFocusSession is the input for recording a focus session.
type NewFocusSession struct {
	Status          FocusStatus `json:"status"`
	AppOrSite       string      `json:"app_or_site"`
	Description     string      `json:"description"`
	Message         *string     `json:"message,omitempty"`
	DurationSeconds *int64      `json:"duration_seconds,omitempty"`
}

// DistractionEntry totals the time spent on one distracting app or site.
type DistractionEntry struct {
	AppOrSite    string `json:"app_or_site"`
	TotalSeconds int64  `json:"total_seconds"`
	Count        int64  `json:"count"`
}

// FocusStats summarizes one day of focus sessions. The minute fields count
// sessions, one minute each.
type FocusStats struct {
	Date              string             `json:"date"`
	FocusedMinutes    int64              `json:"focused_minutes"`
	DistractedMinutes int64              `json:"distracted_minutes"`
	SessionCount      int64              `json:"session_count"`
	FocusedCount      int64              `json:"focused_count"`
	DistractedCount   int64              `json:"distracted_count"`
	TopDistractions   []DistractionEntry `json:"top_distractions"`
}
