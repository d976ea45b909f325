package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/internal/notify"
	"github.com/Kerhoff/RemindoT/internal/repository"
	"github.com/Kerhoff/RemindoT/internal/schedule"
)

// MinAlertOffsetMS is the smallest alert offset accepted at the input
// boundary. The scheduling core itself tolerates any offset >= 0.
const MinAlertOffsetMS = 3000

// Service is the central business logic layer: reminder CRUD with
// validation, outbound callback registration, and the scheduling engine
// entry points (polling cycle and webhook callback).
type Service struct {
	logger         *logrus.Logger
	Reminders      repository.ReminderRepository
	AlertPresets   repository.AlertPresetRepository
	ContactPresets repository.ContactPresetRepository
	callbacks      repository.CallbackScheduler
	dispatcher     *notify.Dispatcher

	pollInterval time.Duration
	now          func() time.Time

	// cycleRunning guards against overlapping polling cycles; reminderLocks
	// serializes state transitions per reminder ID across invocation modes.
	cycleRunning  *cycleGuard
	locksMu       sync.Mutex
	reminderLocks map[int64]*sync.Mutex
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger,
	reminders repository.ReminderRepository,
	alertPresets repository.AlertPresetRepository,
	contactPresets repository.ContactPresetRepository,
	callbacks repository.CallbackScheduler,
	dispatcher *notify.Dispatcher,
	pollInterval time.Duration,
) *Service {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Service{
		logger:         logger,
		Reminders:      reminders,
		AlertPresets:   alertPresets,
		ContactPresets: contactPresets,
		callbacks:      callbacks,
		dispatcher:     dispatcher,
		pollInterval:   pollInterval,
		now:            time.Now,
		cycleRunning:   newCycleGuard(),
		reminderLocks:  make(map[int64]*sync.Mutex),
	}
}

// lockReminder returns the mutex serializing state transitions for one
// reminder ID, creating it on first use.
func (s *Service) lockReminder(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.reminderLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.reminderLocks[id] = mu
	}
	return mu
}

// CreateReminder validates and persists a new reminder, then registers
// callbacks for its alerts with the external scheduler.
func (s *Service) CreateReminder(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	if err := s.validateReminder(reminder); err != nil {
		return nil, err
	}

	created, err := s.Reminders.Create(ctx, reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.registerCallbacks(ctx, created)
	s.logger.Infof("Created reminder %d (%q) for user %s", created.ID, created.Title, created.UserID)
	return created, nil
}

// UpdateReminder validates and persists changes to a reminder, guarding the
// last-alert-time monotonicity invariant, and re-registers callbacks.
func (s *Service) UpdateReminder(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	if err := s.validateReminder(reminder); err != nil {
		return nil, err
	}

	mu := s.lockReminder(reminder.ID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.Reminders.GetByID(ctx, reminder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup reminder %d: %w", reminder.ID, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("reminder with ID %d not found", reminder.ID)
	}

	// last_alert_time never moves backward.
	if existing.LastAlertTime != nil &&
		(reminder.LastAlertTime == nil || reminder.LastAlertTime.Before(*existing.LastAlertTime)) {
		reminder.LastAlertTime = existing.LastAlertTime
	}

	updated, err := s.Reminders.Update(ctx, reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to update reminder %d: %w", reminder.ID, err)
	}

	if err := s.callbacks.CancelCallbacks(ctx, updated.ID); err != nil {
		s.logger.WithError(err).Warnf("Failed to cancel callbacks for reminder %d", updated.ID)
	}
	s.registerCallbacks(ctx, updated)
	return updated, nil
}

// DeleteReminder removes a reminder and cancels its pending callbacks
func (s *Service) DeleteReminder(ctx context.Context, id int64) error {
	if err := s.callbacks.CancelCallbacks(ctx, id); err != nil {
		s.logger.WithError(err).Warnf("Failed to cancel callbacks for reminder %d", id)
	}
	return s.Reminders.Delete(ctx, id)
}

// validateReminder enforces the creation invariants and applies defaults
func (s *Service) validateReminder(reminder *models.Reminder) error {
	if strings.TrimSpace(reminder.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if reminder.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	if reminder.IsRecurring {
		if reminder.Recurrence == "" {
			return fmt.Errorf("recurrence is required for recurring reminders")
		}
		if reminder.StartDate == nil {
			return fmt.Errorf("start_date is required for recurring reminders")
		}
		if _, err := schedule.NextOccurrence(reminder.Recurrence, s.now()); err != nil {
			return fmt.Errorf("recurrence is not a valid cron expression: %w", err)
		}
	}

	for i := range reminder.Alerts {
		alert := &reminder.Alerts[i]
		if alert.OffsetMS < MinAlertOffsetMS {
			return fmt.Errorf("alert offset must be at least %d ms", MinAlertOffsetMS)
		}
		if alert.ID == "" {
			alert.ID = uuid.NewString()
		}
	}

	for i := range reminder.Contacts {
		contact := &reminder.Contacts[i]
		if !contact.Mode.IsValid() {
			return fmt.Errorf("unknown contact mode %q", contact.Mode)
		}
		if strings.TrimSpace(contact.Address) == "" {
			return fmt.Errorf("contact address is required")
		}
		if contact.ID == "" {
			contact.ID = uuid.NewString()
		}
	}

	return nil
}

// registerCallbacks asks the external scheduler to call back at each alert's
// fire instant for the reminder's next event. Failures are logged only; the
// polling loop remains the safety net.
func (s *Service) registerCallbacks(ctx context.Context, reminder *models.Reminder) {
	if !reminder.Active || !reminder.HasAlerts() {
		return
	}

	now := s.now()
	eventTime := schedule.ResolveEventTime(reminder, now)
	if eventTime == nil {
		s.logger.Warnf("Skipping callback registration for reminder %d: unresolvable event time", reminder.ID)
		return
	}

	s.registerCallbacksFor(ctx, reminder, *eventTime, now)
}

// registerCallbacksFor schedules a callback for each of the reminder's alerts
// whose fire instant for the given event still lies in the future.
func (s *Service) registerCallbacksFor(ctx context.Context, reminder *models.Reminder, event, now time.Time) {
	for _, alert := range reminder.Alerts {
		at := alert.AlertTime(event)
		if !at.After(now) {
			continue
		}
		if err := s.callbacks.ScheduleCallback(ctx, reminder.ID, alert.ID, at); err != nil {
			s.logger.WithError(err).Warnf("Failed to schedule callback for reminder %d alert %s",
				reminder.ID, alert.ID)
		}
	}
}
