package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/internal/repository"
)

const reminderColumns = `id, user_id, title, description, location, date, is_recurring, recurrence,
		start_date, end_date, alerts, contacts, last_alert_time, active, created_at, updated_at`

type reminderRepository struct {
	db *sql.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sql.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `
		INSERT INTO reminders (user_id, title, description, location, date, is_recurring, recurrence,
			start_date, end_date, alerts, contacts, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	reminder.CreatedAt = now
	reminder.UpdatedAt = now
	reminder.Active = true

	alerts, contacts, err := marshalLists(reminder)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query,
		reminder.UserID,
		reminder.Title,
		reminder.Description,
		reminder.Location,
		reminder.Date,
		reminder.IsRecurring,
		reminder.Recurrence,
		reminder.StartDate,
		reminder.EndDate,
		alerts,
		contacts,
		reminder.Active,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	).Scan(&reminder.ID, &reminder.CreatedAt, &reminder.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return reminder, nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1`

	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return reminder, nil
}

func (r *reminderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = $1
		ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders by user ID: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *reminderRepository) GetActive(ctx context.Context) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE active = true
		ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	query := `
		UPDATE reminders
		SET title = $2, description = $3, location = $4, date = $5, is_recurring = $6,
			recurrence = $7, start_date = $8, end_date = $9, alerts = $10, contacts = $11,
			last_alert_time = $12, active = $13, updated_at = $14
		WHERE id = $1
		RETURNING updated_at`

	reminder.UpdatedAt = time.Now()

	alerts, contacts, err := marshalLists(reminder)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, query,
		reminder.ID,
		reminder.Title,
		reminder.Description,
		reminder.Location,
		reminder.Date,
		reminder.IsRecurring,
		reminder.Recurrence,
		reminder.StartDate,
		reminder.EndDate,
		alerts,
		contacts,
		reminder.LastAlertTime,
		reminder.Active,
		reminder.UpdatedAt,
	).Scan(&reminder.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	return reminder, nil
}

func (r *reminderRepository) UpdateLastAlertTime(ctx context.Context, id int64, at time.Time) error {
	// GREATEST keeps last_alert_time monotonically non-decreasing even if a
	// stale writer races a fresher one.
	query := `
		UPDATE reminders
		SET last_alert_time = GREATEST(COALESCE(last_alert_time, $2), $2), updated_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update last alert time: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("reminder with ID %d not found", id)
	}

	return nil
}

func (r *reminderRepository) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE reminders
		SET active = false, updated_at = $2
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("reminder with ID %d not found", id)
	}

	return nil
}

func (r *reminderRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM reminders WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("reminder with ID %d not found", id)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReminder reads one reminder row, decoding the alerts and contacts
// JSONB columns.
func scanReminder(row rowScanner) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	var alerts, contacts []byte

	if err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.Title,
		&reminder.Description,
		&reminder.Location,
		&reminder.Date,
		&reminder.IsRecurring,
		&reminder.Recurrence,
		&reminder.StartDate,
		&reminder.EndDate,
		&alerts,
		&contacts,
		&reminder.LastAlertTime,
		&reminder.Active,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(alerts, &reminder.Alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts for reminder %d: %w", reminder.ID, err)
	}
	if err := json.Unmarshal(contacts, &reminder.Contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts for reminder %d: %w", reminder.ID, err)
	}

	return reminder, nil
}

func collectReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func marshalLists(reminder *models.Reminder) (alerts, contacts []byte, err error) {
	if reminder.Alerts == nil {
		reminder.Alerts = []models.Alert{}
	}
	if reminder.Contacts == nil {
		reminder.Contacts = []models.Contact{}
	}

	alerts, err = json.Marshal(reminder.Alerts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode alerts: %w", err)
	}
	contacts, err = json.Marshal(reminder.Contacts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode contacts: %w", err)
	}
	return alerts, contacts, nil
}
