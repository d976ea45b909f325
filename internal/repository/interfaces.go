package repository

import (
	"context"
	"time"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	GetByID(ctx context.Context, id int64) (*models.Reminder, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Reminder, error)
	GetActive(ctx context.Context) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error)
	UpdateLastAlertTime(ctx context.Context, id int64, at time.Time) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// AlertPresetRepository defines the interface for alert preset operations
type AlertPresetRepository interface {
	Create(ctx context.Context, preset *models.AlertPreset) (*models.AlertPreset, error)
	GetByID(ctx context.Context, id int64) (*models.AlertPreset, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.AlertPreset, error)
	Update(ctx context.Context, preset *models.AlertPreset) (*models.AlertPreset, error)
	Delete(ctx context.Context, id int64) error
}

// ContactPresetRepository defines the interface for contact preset operations
type ContactPresetRepository interface {
	Create(ctx context.Context, preset *models.ContactPreset) (*models.ContactPreset, error)
	GetByID(ctx context.Context, id int64) (*models.ContactPreset, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.ContactPreset, error)
	Update(ctx context.Context, preset *models.ContactPreset) (*models.ContactPreset, error)
	Delete(ctx context.Context, id int64) error
}

// CallbackScheduler registers outbound "call me back at this instant for
// (reminder, alert)" requests with an external delayed-delivery mechanism.
// The polling deployment uses a no-op implementation.
type CallbackScheduler interface {
	ScheduleCallback(ctx context.Context, reminderID int64, alertID string, at time.Time) error
	CancelCallbacks(ctx context.Context, reminderID int64) error
}
