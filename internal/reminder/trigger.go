package reminder

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Trigger is the live runtime handle for one user's recurring daily wake-up.
// It is bound 1:1 to a ScheduleEntry's user ID and owns the cancellation flag
// checked cooperatively at wake time. Triggers are not persisted; they are
// rebuilt from the store at startup.
type Trigger struct {
	userID      int64
	displayName string
	at          TriggerTime
	entryID     cron.EntryID
	cancelled   atomic.Bool
}

// NewTrigger builds a trigger for the given entry. The cron entry ID is bound
// after the schedule loop is registered.
func NewTrigger(e ScheduleEntry) *Trigger {
	return &Trigger{userID: e.UserID, displayName: e.DisplayName, at: e.At}
}

// UserID returns the owning user's identifier.
func (t *Trigger) UserID() int64 { return t.userID }

// At returns the daily wall-clock trigger time.
func (t *Trigger) At() TriggerTime { return t.at }

// Cancel marks the trigger cancelled. Cancellation is cooperative: an
// in-flight delivery completes, and the flag is honored at the next wake.
// Cancelled is a terminal state.
func (t *Trigger) Cancel() { t.cancelled.Store(true) }

// Cancelled reports whether the trigger has been cancelled.
func (t *Trigger) Cancelled() bool { return t.cancelled.Load() }
