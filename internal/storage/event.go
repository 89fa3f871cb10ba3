package storage

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var ErrIncorrectDateTime = errors.New("unsupported dateTime format")

// Layouts accepted for dateTime values sent or stored as strings.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"eventName"`
	Type        string    `json:"eventType"`
	Description string    `json:"description"`
	DateTime    time.Time `json:"dateTime"`
	HostID      string    `json:"hostId,omitempty"`
}

// HasStartTime reports whether the event carries a usable start time.
// Records written by older clients may have none.
func (e Event) HasStartTime() bool {
	return !e.DateTime.IsZero()
}

type Notification struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Message   string    `json:"eventNotification"`
	FireAt    time.Time `json:"fireAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// SortByStart orders events by start time; events without one go last.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.HasStartTime() != b.HasStartTime() {
			return a.HasStartTime()
		}
		if !a.DateTime.Equal(b.DateTime) {
			return a.DateTime.Before(b.DateTime)
		}
		return a.ID < b.ID
	})
}

// ParseDateTime reads an event start time. Values without a zone are UTC.
func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrIncorrectDateTime
}
