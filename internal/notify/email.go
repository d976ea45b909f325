package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// SMTPConfig holds the SMTP server settings for outgoing mail
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Addr returns the host:port dial address
func (c SMTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// EmailTransport delivers reminder notifications over plain SMTP
type EmailTransport struct {
	config SMTPConfig
	logger *logrus.Logger
}

// NewEmailTransport creates a new email transport
func NewEmailTransport(config SMTPConfig, logger *logrus.Logger) *EmailTransport {
	return &EmailTransport{config: config, logger: logger}
}

// Send mails the reminder to the given address
func (t *EmailTransport) Send(_ context.Context, address string, reminder *models.Reminder, alert AlertContext) error {
	subject := fmt.Sprintf("Reminder: %s", reminder.Title)
	body := reminderBody(reminder, alert)

	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		t.config.From, address, subject, body)

	auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
	if err := smtp.SendMail(t.config.Addr(), auth, t.config.From, []string{address}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	t.logger.Debugf("Sent email for reminder %d to %s", reminder.ID, address)
	return nil
}

// reminderBody renders the plain-text notification shared by the mail-based
// transports.
func reminderBody(reminder *models.Reminder, alert AlertContext) string {
	body := fmt.Sprintf("%s\n\nAt: %s", reminder.Title, alert.EventTime.Format(time.RFC1123))
	if reminder.Description != "" {
		body += "\n\n" + reminder.Description
	}
	if reminder.Location != "" {
		body += "\nWhere: " + reminder.Location
	}
	return body
}
