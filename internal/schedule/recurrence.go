// Package schedule contains the pure decision logic of the reminder engine:
// recurrence evaluation, event-time resolution, alert selection and
// deactivation policy. Nothing in this package reads the wall clock or
// performs I/O; "now" is always a parameter so the same decisions are
// reproducible from both the polling loop and the webhook callback path.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidRecurrence marks a recurrence expression that cannot be parsed.
// Callers log and skip the reminder for the cycle; the next cycle retries.
var ErrInvalidRecurrence = errors.New("invalid recurrence expression")

// NextOccurrence computes the earliest instant strictly after ref that
// matches the given 5-field cron expression (minute, hour, day-of-month,
// month, day-of-week; ranges and lists supported).
func NextOccurrence(expr string, ref time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidRecurrence, expr, err)
	}
	return sched.Next(ref), nil
}
