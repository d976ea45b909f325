package schedule

import (
	"fmt"
	"time"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// StaleThreshold is how far past its fire instant an alert (or a one-time
// reminder's event) may drift before it is treated as missed rather than
// late. Bounds the catch-up burst after process downtime.
const StaleThreshold = time.Hour

// Decision is the outcome of a deactivation check. Reason is informational
// and only surfaces in logs.
type Decision struct {
	Deactivate bool
	Reason     string
}

// EvaluateOneTime decides whether a one-time reminder should be retired.
// A one-time reminder fires at most once, ever: once LastAlertTime is set it
// is terminal. A reminder whose event time passed more than StaleThreshold
// ago without ever firing (e.g. process downtime) is retired as stale so it
// does not linger forever.
func EvaluateOneTime(r *models.Reminder, now time.Time) Decision {
	if r.LastAlertTime != nil {
		return Decision{Deactivate: true, Reason: "already alerted"}
	}

	if overdue := now.Sub(r.Date); overdue > StaleThreshold {
		return Decision{
			Deactivate: true,
			Reason:     fmt.Sprintf("stale: missed by %d seconds", int64(overdue.Seconds())),
		}
	}

	return Decision{}
}

// EvaluateRecurring decides whether a recurring reminder has exhausted its
// window. The check runs against the computed next occurrence, not now, so a
// reminder is retired exactly when its next scheduled fire would fall out of
// bounds. An absent end date means an open-ended recurrence.
func EvaluateRecurring(r *models.Reminder, nextEvent time.Time) Decision {
	if r.Recurrence == "" || r.EndDate == nil {
		return Decision{}
	}

	if nextEvent.After(*r.EndDate) {
		return Decision{
			Deactivate: true,
			Reason: fmt.Sprintf("next occurrence %s exceeds end_date %s",
				nextEvent.Format(time.RFC3339), r.EndDate.Format(time.RFC3339)),
		}
	}

	return Decision{}
}

// Evaluate dispatches to the one-time or recurring policy based on the
// reminder type. nextEvent is only consulted for recurring reminders.
func Evaluate(r *models.Reminder, nextEvent time.Time, now time.Time) Decision {
	if r.IsRecurring {
		return EvaluateRecurring(r, nextEvent)
	}
	return EvaluateOneTime(r, now)
}
