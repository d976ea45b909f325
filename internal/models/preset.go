package models

import "time"

// AlertPreset is a named, owner-scoped list of alert offsets that can be
// attached to new reminders without retyping them.
type AlertPreset struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Alerts    []Alert   `json:"alerts" db:"alerts"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ContactPreset is a named, owner-scoped list of contact targets
type ContactPreset struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Contacts  []Contact `json:"contacts" db:"contacts"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
