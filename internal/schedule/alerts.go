package schedule

import (
	"time"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// SelectFiringAlert scans the reminder's alerts in list order and returns the
// first one that is due now, or nil when nothing should fire this cycle.
//
// An alert is a candidate when its fire instant (eventTime minus offset) has
// arrived and is less than StaleThreshold in the past. The stale threshold,
// not the evaluation window, bounds candidacy: after a long process pause a
// burst of long-overdue alerts must not all fire at once, while normal
// scheduling jitter within the window still lands inside the threshold.
//
// For recurring reminders a candidate is skipped when the reminder has
// already fired at or after the candidate's fire instant (LastAlertTime >=
// alertTime), which makes re-evaluating the same occurrence idempotent.
// One-time reminders never reach that check: the deactivation policy retires
// them after their first fire.
//
// At most one alert fires per evaluation cycle, even if several thresholds
// were crossed simultaneously; earliest in list order wins and later cycles
// pick up whatever remains relevant.
func SelectFiringAlert(r *models.Reminder, eventTime, now time.Time, windowMS int64) *models.Alert {
	for i := range r.Alerts {
		alert := &r.Alerts[i]

		alertTime := alert.AlertTime(eventTime)
		if !InFiringWindow(alertTime, now) {
			continue
		}

		if r.IsRecurring && HasAlreadyAlerted(r, alertTime) {
			continue
		}

		return alert
	}

	return nil
}

// InFiringWindow reports whether an alert with the given fire instant is
// currently due: the instant has arrived and lies less than StaleThreshold in
// the past. Both invocation modes gate dispatch on this predicate so they
// reach the same decision from the same state.
func InFiringWindow(alertTime, now time.Time) bool {
	diff := now.Sub(alertTime)
	return diff >= 0 && diff < StaleThreshold
}

// HasAlreadyAlerted reports whether the reminder's last recorded fire covers
// the given alert instant, i.e. the alert already fired for this occurrence.
func HasAlreadyAlerted(r *models.Reminder, alertTime time.Time) bool {
	return r.LastAlertTime != nil && !r.LastAlertTime.Before(alertTime)
}
