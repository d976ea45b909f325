package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/RemindoT/internal/notify"
	"github.com/Kerhoff/RemindoT/internal/schedule"
	"github.com/Kerhoff/RemindoT/pkg/metrics"
)

// CallbackOutcome is the logical result of a webhook-mode alert callback
type CallbackOutcome string

const (
	CallbackFired   CallbackOutcome = "fired"
	CallbackSkipped CallbackOutcome = "skipped"
)

// CallbackResult reports what the callback did and, for skips, why. A skip
// is an expected race (reminder deleted or deactivated between scheduling
// and firing), not a fault.
type CallbackResult struct {
	Outcome CallbackOutcome `json:"outcome"`
	Reason  string          `json:"reason,omitempty"`
}

func skipped(reason string) CallbackResult {
	return CallbackResult{Outcome: CallbackSkipped, Reason: reason}
}

// HandleAlertCallback is the push/webhook-mode entry point: an external
// scheduler calls back at a precomputed fire instant for one
// (reminder, alert) pair. It reaches the same decisions as the polling loop
// from the same reminder state: deactivation is checked first, then the
// firing window and idempotency rules, then dispatch, persist and a
// post-fire pass that retires the reminder or schedules callbacks for the
// next occurrence.
func (s *Service) HandleAlertCallback(ctx context.Context, reminderID int64, alertID string) (CallbackResult, error) {
	mu := s.lockReminder(reminderID)
	mu.Lock()
	defer mu.Unlock()

	reminder, err := s.Reminders.GetByID(ctx, reminderID)
	if err != nil {
		return CallbackResult{}, fmt.Errorf("failed to lookup reminder %d: %w", reminderID, err)
	}
	if reminder == nil {
		return skipped("reminder not found"), nil
	}
	if !reminder.Active {
		return skipped("reminder inactive"), nil
	}

	alert := reminder.AlertByID(alertID)
	if alert == nil {
		return skipped("unknown alert"), nil
	}

	now := s.now()
	eventTime := schedule.ResolveEventTime(reminder, now)
	if eventTime == nil {
		s.logger.Warnf("Callback for reminder %d skipped: invalid recurrence", reminderID)
		return skipped("invalid recurrence expression"), nil
	}

	if decision := schedule.Evaluate(reminder, *eventTime, now); decision.Deactivate {
		var outcome ReminderOutcome
		s.deactivate(ctx, reminder, decision, &outcome)
		return skipped(decision.Reason), nil
	}

	// A callback that arrives outside the firing window must not dispatch.
	// Early means the alert instant has not arrived; late means the resolved
	// event is already the next occurrence, and attributing a stale callback
	// to it would fire that occurrence's alert ahead of time.
	alertTime := alert.AlertTime(*eventTime)
	if !schedule.InFiringWindow(alertTime, now) {
		return skipped("alert not due"), nil
	}

	if reminder.IsRecurring && schedule.HasAlreadyAlerted(reminder, alertTime) {
		return skipped("already fired for this occurrence"), nil
	}

	s.dispatcher.Dispatch(ctx, reminder, notify.AlertContext{
		Name:      alert.ID,
		OffsetMS:  alert.OffsetMS,
		EventTime: *eventTime,
	})
	metrics.AlertsFired.WithLabelValues("webhook").Inc()

	if err := s.Reminders.UpdateLastAlertTime(ctx, reminder.ID, now); err != nil {
		// Delivery already happened; at-least-once is accepted.
		s.logger.WithError(err).Warnf("Failed to persist last alert time for reminder %d", reminder.ID)
	}
	reminder.LastAlertTime = &now

	// Post-fire: a one-time reminder retires immediately. A recurring one
	// either retires on exhaustion or gets callbacks registered for its next
	// occurrence, so webhook-only deployments keep firing without a polling
	// loop to fall back on.
	if reminder.IsRecurring {
		if next, err := schedule.NextOccurrence(reminder.Recurrence, *eventTime); err == nil {
			if decision := schedule.EvaluateRecurring(reminder, next); decision.Deactivate {
				var outcome ReminderOutcome
				s.deactivate(ctx, reminder, decision, &outcome)
			} else {
				s.registerCallbacksFor(ctx, reminder, next, now)
			}
		}
	} else if decision := schedule.EvaluateOneTime(reminder, now); decision.Deactivate {
		var outcome ReminderOutcome
		s.deactivate(ctx, reminder, decision, &outcome)
	}

	return CallbackResult{Outcome: CallbackFired}, nil
}
