package reminder

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultLead is how long before an event's start its reminder fires.
const DefaultLead = 30 * time.Minute

// FireTime returns the instant a reminder for an event starting at start fires.
func FireTime(start time.Time, lead time.Duration) time.Time {
	return start.Add(-lead)
}

// Registration is a pending reminder: one per event at most.
type Registration struct {
	EventID string
	FireAt  time.Time

	entry cron.EntryID
}

// Key identifies the registration across processes. It doubles as the dedup marker key.
func (r Registration) Key() string {
	return fmt.Sprintf("reminder:%s:%d", r.EventID, r.FireAt.Unix())
}

// onceSchedule is a cron.Schedule that activates a single time.
type onceSchedule struct {
	at time.Time
}

var _ cron.Schedule = onceSchedule{}

// Next returns the zero time once at has been reached, which cron treats as never.
func (s onceSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}
