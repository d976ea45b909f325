package service

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/internal/notify"
	"github.com/Kerhoff/RemindoT/internal/schedule"
	"github.com/Kerhoff/RemindoT/pkg/metrics"
)

// cycleGuard prevents a new polling tick from starting evaluation while a
// previous tick's reminder loop is still running.
type cycleGuard struct {
	running *atomic.Bool
}

func newCycleGuard() *cycleGuard {
	return &cycleGuard{running: atomic.NewBool(false)}
}

func (g *cycleGuard) tryAcquire() bool { return g.running.CAS(false, true) }
func (g *cycleGuard) release()         { g.running.Store(false) }

// ReminderOutcome describes what an evaluation cycle did for one reminder
type ReminderOutcome struct {
	ReminderID  int64
	FiredAlert  string // alert ID, empty when nothing fired
	Deactivated bool
	Reason      string
	Err         error
}

// CycleResult collects the per-reminder outcomes of one evaluation cycle so
// partial-failure behavior is assertable without capturing log output.
type CycleResult struct {
	StartedAt time.Time
	Evaluated int
	Outcomes  []ReminderOutcome
}

// StartScheduler runs the polling loop: a full evaluation cycle every poll
// interval. It blocks until the context is cancelled, so it should be
// launched in a separate goroutine.
func (s *Service) StartScheduler(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Infof("Reminder scheduler started (interval %s)", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// TriggerCycle runs one evaluation cycle outside the ticker, e.g. from the
// manual trigger endpoint. Returns false when a cycle is already in progress.
func (s *Service) TriggerCycle(ctx context.Context) (CycleResult, bool) {
	if !s.cycleRunning.tryAcquire() {
		return CycleResult{}, false
	}
	defer s.cycleRunning.release()
	return s.runCycle(ctx), true
}

func (s *Service) tick(ctx context.Context) {
	if !s.cycleRunning.tryAcquire() {
		metrics.CyclesSkipped.Inc()
		s.logger.Warn("Skipping tick: previous cycle still running")
		return
	}
	defer s.cycleRunning.release()

	start := time.Now()
	result := s.runCycle(ctx)
	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	for _, o := range result.Outcomes {
		if o.Err != nil {
			metrics.EvaluationErrors.Inc()
			s.logger.WithError(o.Err).Errorf("Failed to evaluate reminder %d", o.ReminderID)
		}
	}
}

// runCycle fetches all active reminders and applies the per-reminder
// evaluation procedure to each. A per-reminder error never aborts the cycle.
func (s *Service) runCycle(ctx context.Context) CycleResult {
	now := s.now()
	result := CycleResult{StartedAt: now}

	reminders, err := s.Reminders.GetActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get active reminders")
		return result
	}

	for _, reminder := range reminders {
		if !reminder.Active || !reminder.HasAlerts() {
			continue
		}
		result.Evaluated++
		result.Outcomes = append(result.Outcomes, s.evaluateReminder(ctx, reminder, now))
	}

	return result
}

// evaluateReminder runs the core decision sequence for one reminder:
// resolve event time, check deactivation (short-circuits), select a firing
// alert, dispatch and persist. State transitions are serialized per
// reminder ID.
func (s *Service) evaluateReminder(ctx context.Context, reminder *models.Reminder, now time.Time) ReminderOutcome {
	outcome := ReminderOutcome{ReminderID: reminder.ID}

	mu := s.lockReminder(reminder.ID)
	mu.Lock()
	defer mu.Unlock()

	eventTime := schedule.ResolveEventTime(reminder, now)
	if eventTime == nil {
		outcome.Err = schedule.ErrInvalidRecurrence
		return outcome
	}

	if decision := schedule.Evaluate(reminder, *eventTime, now); decision.Deactivate {
		outcome.Deactivated = true
		outcome.Reason = decision.Reason
		s.deactivate(ctx, reminder, decision, &outcome)
		return outcome
	}

	alert := schedule.SelectFiringAlert(reminder, *eventTime, now, s.pollInterval.Milliseconds())
	if alert == nil {
		return outcome
	}

	s.dispatcher.Dispatch(ctx, reminder, notify.AlertContext{
		Name:      alert.ID,
		OffsetMS:  alert.OffsetMS,
		EventTime: *eventTime,
	})
	metrics.AlertsFired.WithLabelValues("poll").Inc()
	outcome.FiredAlert = alert.ID

	// The notification is already out; a failed persist risks a duplicate
	// fire next cycle, accepted as at-least-once.
	if err := s.Reminders.UpdateLastAlertTime(ctx, reminder.ID, now); err != nil {
		s.logger.WithError(err).Warnf("Failed to persist last alert time for reminder %d", reminder.ID)
		outcome.Err = err
	}

	return outcome
}

// deactivate persists the active=false transition and records metrics
func (s *Service) deactivate(ctx context.Context, reminder *models.Reminder, decision schedule.Decision, outcome *ReminderOutcome) {
	kind := "one_time"
	if reminder.IsRecurring {
		kind = "recurring"
	}

	s.logger.Infof("Deactivating reminder %d: %s", reminder.ID, decision.Reason)
	if err := s.Reminders.Deactivate(ctx, reminder.ID); err != nil {
		s.logger.WithError(err).Warnf("Failed to deactivate reminder %d", reminder.ID)
		outcome.Err = err
		return
	}
	metrics.RemindersDeactivated.WithLabelValues(kind).Inc()
}
