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

type alertPresetRepository struct {
	db *sql.DB
}

// NewAlertPresetRepository creates a new alert preset repository
func NewAlertPresetRepository(db *sql.DB) repository.AlertPresetRepository {
	return &alertPresetRepository{db: db}
}

func (r *alertPresetRepository) Create(ctx context.Context, preset *models.AlertPreset) (*models.AlertPreset, error) {
	query := `
		INSERT INTO alert_presets (user_id, name, alerts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	preset.CreatedAt = now
	preset.UpdatedAt = now

	alerts, err := json.Marshal(preset.Alerts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alerts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		preset.UserID, preset.Name, alerts, preset.CreatedAt, preset.UpdatedAt,
	).Scan(&preset.ID, &preset.CreatedAt, &preset.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create alert preset: %w", err)
	}

	return preset, nil
}

func (r *alertPresetRepository) GetByID(ctx context.Context, id int64) (*models.AlertPreset, error) {
	query := `
		SELECT id, user_id, name, alerts, created_at, updated_at
		FROM alert_presets
		WHERE id = $1`

	preset := &models.AlertPreset{}
	var alerts []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&preset.ID, &preset.UserID, &preset.Name, &alerts, &preset.CreatedAt, &preset.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alert preset: %w", err)
	}

	if err := json.Unmarshal(alerts, &preset.Alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts for preset %d: %w", preset.ID, err)
	}

	return preset, nil
}

func (r *alertPresetRepository) GetByUserID(ctx context.Context, userID string) ([]*models.AlertPreset, error) {
	query := `
		SELECT id, user_id, name, alerts, created_at, updated_at
		FROM alert_presets
		WHERE user_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert presets: %w", err)
	}
	defer rows.Close()

	var presets []*models.AlertPreset
	for rows.Next() {
		preset := &models.AlertPreset{}
		var alerts []byte
		if err := rows.Scan(
			&preset.ID, &preset.UserID, &preset.Name, &alerts, &preset.CreatedAt, &preset.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert preset: %w", err)
		}
		if err := json.Unmarshal(alerts, &preset.Alerts); err != nil {
			return nil, fmt.Errorf("failed to decode alerts for preset %d: %w", preset.ID, err)
		}
		presets = append(presets, preset)
	}

	return presets, rows.Err()
}

func (r *alertPresetRepository) Update(ctx context.Context, preset *models.AlertPreset) (*models.AlertPreset, error) {
	query := `
		UPDATE alert_presets
		SET name = $2, alerts = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at`

	preset.UpdatedAt = time.Now()

	alerts, err := json.Marshal(preset.Alerts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alerts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		preset.ID, preset.Name, alerts, preset.UpdatedAt,
	).Scan(&preset.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update alert preset: %w", err)
	}

	return preset, nil
}

func (r *alertPresetRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "alert_presets", "alert preset", id)
}

type contactPresetRepository struct {
	db *sql.DB
}

// NewContactPresetRepository creates a new contact preset repository
func NewContactPresetRepository(db *sql.DB) repository.ContactPresetRepository {
	return &contactPresetRepository{db: db}
}

func (r *contactPresetRepository) Create(ctx context.Context, preset *models.ContactPreset) (*models.ContactPreset, error) {
	query := `
		INSERT INTO contact_presets (user_id, name, contacts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	preset.CreatedAt = now
	preset.UpdatedAt = now

	contacts, err := json.Marshal(preset.Contacts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contacts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		preset.UserID, preset.Name, contacts, preset.CreatedAt, preset.UpdatedAt,
	).Scan(&preset.ID, &preset.CreatedAt, &preset.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create contact preset: %w", err)
	}

	return preset, nil
}

func (r *contactPresetRepository) GetByID(ctx context.Context, id int64) (*models.ContactPreset, error) {
	query := `
		SELECT id, user_id, name, contacts, created_at, updated_at
		FROM contact_presets
		WHERE id = $1`

	preset := &models.ContactPreset{}
	var contacts []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&preset.ID, &preset.UserID, &preset.Name, &contacts, &preset.CreatedAt, &preset.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact preset: %w", err)
	}

	if err := json.Unmarshal(contacts, &preset.Contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts for preset %d: %w", preset.ID, err)
	}

	return preset, nil
}

func (r *contactPresetRepository) GetByUserID(ctx context.Context, userID string) ([]*models.ContactPreset, error) {
	query := `
		SELECT id, user_id, name, contacts, created_at, updated_at
		FROM contact_presets
		WHERE user_id = $1
		ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact presets: %w", err)
	}
	defer rows.Close()

	var presets []*models.ContactPreset
	for rows.Next() {
		preset := &models.ContactPreset{}
		var contacts []byte
		if err := rows.Scan(
			&preset.ID, &preset.UserID, &preset.Name, &contacts, &preset.CreatedAt, &preset.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact preset: %w", err)
		}
		if err := json.Unmarshal(contacts, &preset.Contacts); err != nil {
			return nil, fmt.Errorf("failed to decode contacts for preset %d: %w", preset.ID, err)
		}
		presets = append(presets, preset)
	}

	return presets, rows.Err()
}

func (r *contactPresetRepository) Update(ctx context.Context, preset *models.ContactPreset) (*models.ContactPreset, error) {
	query := `
		UPDATE contact_presets
		SET name = $2, contacts = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at`

	preset.UpdatedAt = time.Now()

	contacts, err := json.Marshal(preset.Contacts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contacts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		preset.ID, preset.Name, contacts, preset.UpdatedAt,
	).Scan(&preset.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update contact preset: %w", err)
	}

	return preset, nil
}

func (r *contactPresetRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "contact_presets", "contact preset", id)
}

func deleteByID(ctx context.Context, db *sql.DB, table, kind string, id int64) error {
	result, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s with ID %d not found", kind, id)
	}

	return nil
}
