package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/internal/notify"
)

type scheduledCallback struct {
	reminderID int64
	alertID    string
	at         time.Time
}

// recordingCallbackScheduler captures outbound callback registrations
type recordingCallbackScheduler struct {
	scheduled []scheduledCallback
	cancelled []int64
}

func (r *recordingCallbackScheduler) ScheduleCallback(_ context.Context, reminderID int64, alertID string, at time.Time) error {
	r.scheduled = append(r.scheduled, scheduledCallback{reminderID: reminderID, alertID: alertID, at: at})
	return nil
}

func (r *recordingCallbackScheduler) CancelCallbacks(_ context.Context, reminderID int64) error {
	r.cancelled = append(r.cancelled, reminderID)
	return nil
}

func newTestServiceWithCallbacks(repo *fakeReminderRepo, cbs *recordingCallbackScheduler, at time.Time) (*Service, *recordingTransport) {
	transport := &recordingTransport{}
	dispatcher := notify.NewDispatcher(quietLogger())
	dispatcher.Register(models.ContactModeEmail, transport)

	svc := New(quietLogger(), repo, nil, nil, cbs, dispatcher, 3*time.Second)
	svc.now = func() time.Time { return at }
	return svc, transport
}

func TestHandleAlertCallbackFiresAndRetiresOneTime(t *testing.T) {
	base := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	now := base.Add(30 * time.Minute)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:       1,
		Active:   true,
		Date:     base.Add(time.Hour),
		Alerts:   []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts: emailContact(),
	})
	svc, transport := newTestService(repo, now)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackFired, result.Outcome)

	require.Len(t, transport.sends, 1)
	assert.Equal(t, "a1", transport.sends[0].alertID)

	// Post-fire deactivation pass retires the one-time reminder immediately.
	assert.False(t, repo.reminders[1].Active)
	require.NotNil(t, repo.reminders[1].LastAlertTime)
	assert.Equal(t, now, *repo.reminders[1].LastAlertTime)
}

func TestHandleAlertCallbackRecurringStaysActive(t *testing.T) {
	now := time.Date(2025, 6, 4, 11, 30, 0, 0, time.UTC)
	start := now.Add(-24 * time.Hour)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:          1,
		Active:      true,
		IsRecurring: true,
		Recurrence:  "0 12 * * *",
		StartDate:   &start,
		Alerts:      []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts:    emailContact(),
	})
	svc, transport := newTestService(repo, now)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackFired, result.Outcome)
	assert.Len(t, transport.sends, 1)
	assert.True(t, repo.reminders[1].Active)

	// A duplicate callback for the same occurrence is a benign skip.
	result, err = svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Contains(t, result.Reason, "already fired")
	assert.Len(t, transport.sends, 1)
}

func TestHandleAlertCallbackBenignRaces(t *testing.T) {
	base := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)
	now := base.Add(30 * time.Minute)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:       1,
		Active:   false,
		Date:     base.Add(time.Hour),
		Alerts:   []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts: emailContact(),
	})
	svc, transport := newTestService(repo, now)

	// Deleted between scheduling and firing.
	result, err := svc.HandleAlertCallback(context.Background(), 99, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Equal(t, "reminder not found", result.Reason)

	// Deactivated between scheduling and firing.
	result, err = svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Equal(t, "reminder inactive", result.Reason)

	// Alert removed by an update between scheduling and firing.
	repo.reminders[1].Active = true
	result, err = svc.HandleAlertCallback(context.Background(), 1, "missing")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Equal(t, "unknown alert", result.Reason)

	assert.Empty(t, transport.sends)
}

func TestHandleAlertCallbackStaleOneTime(t *testing.T) {
	// The callback arrives long after the event (e.g. queue outage): the
	// reminder is stale, gets retired, and nothing is delivered.
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:       1,
		Active:   true,
		Date:     now.Add(-2 * time.Hour),
		Alerts:   []models.Alert{{ID: "a1", OffsetMS: 3000}},
		Contacts: emailContact(),
	})
	svc, transport := newTestService(repo, now)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Contains(t, result.Reason, "stale")
	assert.Empty(t, transport.sends)
	assert.False(t, repo.reminders[1].Active)
}

func TestHandleAlertCallbackLateForOccurrence(t *testing.T) {
	// The callback for today's 11:30 alert arrives at 12:01, after the noon
	// occurrence passed. The resolved event is already tomorrow's, whose
	// alert instant is still in the future, so nothing may dispatch; the
	// polling loop at the same instant would select nothing either.
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 4, 12, 1, 0, 0, time.UTC)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:          1,
		Active:      true,
		IsRecurring: true,
		Recurrence:  "0 12 * * *",
		StartDate:   &start,
		Alerts:      []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts:    emailContact(),
	})
	svc, transport := newTestService(repo, late)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Equal(t, "alert not due", result.Reason)
	assert.Empty(t, transport.sends)
	assert.Nil(t, repo.reminders[1].LastAlertTime)

	// Tomorrow's genuine callback still fires, exactly once in total.
	svc.now = func() time.Time { return time.Date(2025, 6, 5, 11, 30, 0, 0, time.UTC) }
	result, err = svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackFired, result.Outcome)
	assert.Len(t, transport.sends, 1)
}

func TestHandleAlertCallbackEarly(t *testing.T) {
	// The alert instant is still 90 minutes away; a premature callback is a
	// benign skip and the reminder stays untouched.
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:       1,
		Active:   true,
		Date:     now.Add(2 * time.Hour),
		Alerts:   []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts: emailContact(),
	})
	svc, transport := newTestService(repo, now)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Equal(t, "alert not due", result.Reason)
	assert.Empty(t, transport.sends)
	assert.True(t, repo.reminders[1].Active)
	assert.Nil(t, repo.reminders[1].LastAlertTime)
}

func TestHandleAlertCallbackReschedulesNextOccurrence(t *testing.T) {
	// After a recurring fire, a callback for the next occurrence's alert is
	// registered so a webhook-only deployment keeps firing.
	now := time.Date(2025, 6, 4, 11, 30, 0, 0, time.UTC)
	start := now.Add(-24 * time.Hour)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:          1,
		Active:      true,
		IsRecurring: true,
		Recurrence:  "0 12 * * *",
		StartDate:   &start,
		Alerts:      []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts:    emailContact(),
	})
	cbs := &recordingCallbackScheduler{}
	svc, transport := newTestServiceWithCallbacks(repo, cbs, now)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackFired, result.Outcome)
	assert.Len(t, transport.sends, 1)

	require.Len(t, cbs.scheduled, 1)
	assert.Equal(t, int64(1), cbs.scheduled[0].reminderID)
	assert.Equal(t, "a1", cbs.scheduled[0].alertID)
	assert.Equal(t, time.Date(2025, 6, 5, 11, 30, 0, 0, time.UTC), cbs.scheduled[0].at)
}

func TestHandleAlertCallbackExhaustionAfterFire(t *testing.T) {
	// The fired occurrence was the last one inside the end date: the
	// reminder is retired right after delivery and nothing is rescheduled.
	now := time.Date(2025, 6, 4, 11, 30, 0, 0, time.UTC)
	start := now.Add(-24 * time.Hour)
	end := time.Date(2025, 6, 4, 18, 0, 0, 0, time.UTC)

	repo := newFakeReminderRepo(&models.Reminder{
		ID:          1,
		Active:      true,
		IsRecurring: true,
		Recurrence:  "0 12 * * *",
		StartDate:   &start,
		EndDate:     &end,
		Alerts:      []models.Alert{{ID: "a1", OffsetMS: 1800000}},
		Contacts:    emailContact(),
	})
	cbs := &recordingCallbackScheduler{}
	svc, transport := newTestServiceWithCallbacks(repo, cbs, now)

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackFired, result.Outcome)
	assert.Len(t, transport.sends, 1)
	assert.False(t, repo.reminders[1].Active)
	assert.Empty(t, cbs.scheduled)
}

func TestHandleAlertCallbackInvalidRecurrence(t *testing.T) {
	repo := newFakeReminderRepo(&models.Reminder{
		ID:          1,
		Active:      true,
		IsRecurring: true,
		Recurrence:  "not a cron",
		Alerts:      []models.Alert{{ID: "a1", OffsetMS: 3000}},
		Contacts:    emailContact(),
	})
	svc, transport := newTestService(repo, time.Now())

	result, err := svc.HandleAlertCallback(context.Background(), 1, "a1")
	require.NoError(t, err)
	assert.Equal(t, CallbackSkipped, result.Outcome)
	assert.Empty(t, transport.sends)
}
