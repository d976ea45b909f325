package schedule

import (
	"time"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// ResolveEventTime returns the relevant upcoming event instant for the
// reminder: the next recurrence match after now for recurring reminders, or
// the fixed date for one-time reminders. The fixed date is returned even when
// it lies in the past; staleness is the deactivation policy's concern.
//
// A nil result means the recurrence expression could not be parsed and the
// reminder must be skipped for this cycle.
func ResolveEventTime(r *models.Reminder, now time.Time) *time.Time {
	if r.IsRecurring && r.Recurrence != "" {
		next, err := NextOccurrence(r.Recurrence, now)
		if err != nil {
			return nil
		}
		return &next
	}

	date := r.Date
	return &date
}
