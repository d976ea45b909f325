package models

import "time"

// ContactMode defines the delivery channel for a reminder notification
type ContactMode string

const (
	ContactModeEmail    ContactMode = "email"
	ContactModeSMS      ContactMode = "sms"
	ContactModeCall     ContactMode = "call"
	ContactModePush     ContactMode = "push"
	ContactModeICal     ContactMode = "ical"
	ContactModeTelegram ContactMode = "telegram"
)

// IsValid reports whether the contact mode is one of the known channels
func (m ContactMode) IsValid() bool {
	switch m {
	case ContactModeEmail, ContactModeSMS, ContactModeCall,
		ContactModePush, ContactModeICal, ContactModeTelegram:
		return true
	}
	return false
}

// Alert describes a single notification threshold: fire OffsetMS milliseconds
// before the reminder's event instant.
type Alert struct {
	ID       string `json:"id"`
	OffsetMS int64  `json:"offset_ms"`
}

// Offset returns the alert offset as a duration
func (a Alert) Offset() time.Duration {
	return time.Duration(a.OffsetMS) * time.Millisecond
}

// AlertTime computes the instant at which this alert becomes due for the
// given event instant.
func (a Alert) AlertTime(event time.Time) time.Time {
	return event.Add(-a.Offset())
}

// Contact is a delivery target for a reminder's notifications
type Contact struct {
	ID      string      `json:"id"`
	Mode    ContactMode `json:"mode"`
	Address string      `json:"address"`
}

// Reminder represents a scheduled reminder, one-time or recurring
type Reminder struct {
	ID            int64      `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Location      string     `json:"location,omitempty" db:"location"`
	Date          time.Time  `json:"date" db:"date"`
	IsRecurring   bool       `json:"is_recurring" db:"is_recurring"`
	Recurrence    string     `json:"recurrence,omitempty" db:"recurrence"`
	StartDate     *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty" db:"end_date"`
	Alerts        []Alert    `json:"alerts" db:"alerts"`
	Contacts      []Contact  `json:"contacts" db:"contacts"`
	LastAlertTime *time.Time `json:"last_alert_time,omitempty" db:"last_alert_time"`
	Active        bool       `json:"active" db:"active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// HasAlerts reports whether the reminder has at least one alert configured
func (r *Reminder) HasAlerts() bool {
	return len(r.Alerts) > 0
}

// AlertByID returns the alert with the given ID, or nil if none matches
func (r *Reminder) AlertByID(id string) *Alert {
	for i := range r.Alerts {
		if r.Alerts[i].ID == id {
			return &r.Alerts[i]
		}
	}
	return nil
}
