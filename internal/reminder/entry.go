// Package reminder implements the daily reminder core: the schedule entry
// model, the in-memory trigger registry, the timezone-aware daily scheduler
// and the service façade that ties them to a durable store and a delivery sink.
package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"morningbot/internal/shared"
)

// TriggerTime is a wall-clock time of day in the configured timezone.
type TriggerTime struct {
	Hour   int
	Minute int
	Second int
}

// NewTriggerTime validates hour/minute/second ranges and builds a TriggerTime.
func NewTriggerTime(hour, minute, second int) (TriggerTime, error) {
	if hour < 0 || hour > 23 {
		return TriggerTime{}, shared.MarkKind(fmt.Errorf("hour %d out of range", hour), shared.KindValidation)
	}
	if minute < 0 || minute > 59 {
		return TriggerTime{}, shared.MarkKind(fmt.Errorf("minute %d out of range", minute), shared.KindValidation)
	}
	if second < 0 || second > 59 {
		return TriggerTime{}, shared.MarkKind(fmt.Errorf("second %d out of range", second), shared.KindValidation)
	}
	return TriggerTime{Hour: hour, Minute: minute, Second: second}, nil
}

// ParseTriggerTime parses "HH:MM:SS" (or "HH:MM", seconds default to zero)
// as written to the durable table. A row that fails here is corrupt.
func ParseTriggerTime(s string) (TriggerTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TriggerTime{}, shared.MarkKind(fmt.Errorf("trigger time %q: expected HH:MM:SS", s), shared.KindCorruptSchedule)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TriggerTime{}, shared.MarkKind(fmt.Errorf("trigger time %q: %w", s, err), shared.KindCorruptSchedule)
		}
		nums[i] = n
	}
	t, err := NewTriggerTime(nums[0], nums[1], nums[2])
	if err != nil {
		return TriggerTime{}, shared.MarkKind(fmt.Errorf("trigger time %q out of range", s), shared.KindCorruptSchedule)
	}
	return t, nil
}

// String formats the time as zero-padded HH:MM:SS, the persisted notation.
func (t TriggerTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// DaySeconds returns the offset from midnight in seconds, used for window
// policy comparisons.
func (t TriggerTime) DaySeconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// ScheduleEntry is one persisted row of the schedule table: a user, the name
// to greet them by and their daily wall-clock trigger time.
type ScheduleEntry struct {
	UserID      int64
	DisplayName string
	At          TriggerTime
}

// NextFire computes the nearest future instant in loc whose wall clock matches
// t. If today's occurrence has already passed (or is exactly now), tomorrow's
// occurrence is returned. Missed occurrences are never back-filled.
func NextFire(now time.Time, t TriggerTime, loc *time.Location) time.Time {
	local := now.In(loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, t.Second, 0, loc)
	if !fire.After(local) {
		fire = time.Date(local.Year(), local.Month(), local.Day()+1, t.Hour, t.Minute, t.Second, 0, loc)
	}
	return fire
}
