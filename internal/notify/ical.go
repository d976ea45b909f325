package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/emersion/go-ical"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// ICalTransport mails the reminder as an iCalendar invite so calendar
// clients can add the event directly.
type ICalTransport struct {
	config SMTPConfig
	logger *logrus.Logger
}

// NewICalTransport creates a new iCalendar transport
func NewICalTransport(config SMTPConfig, logger *logrus.Logger) *ICalTransport {
	return &ICalTransport{config: config, logger: logger}
}

// Send renders a VEVENT for the reminder and mails it as text/calendar
func (t *ICalTransport) Send(_ context.Context, address string, reminder *models.Reminder, alert AlertContext) error {
	ics, err := renderInvite(reminder, alert)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Invitation: %s", reminder.Title)
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/calendar; method=REQUEST; charset=\"UTF-8\"\r\n\r\n%s",
		t.config.From, address, subject, ics)

	auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
	if err := smtp.SendMail(t.config.Addr(), auth, t.config.From, []string{address}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send invite: %w", err)
	}

	t.logger.Debugf("Sent iCal invite for reminder %d to %s", reminder.ID, address)
	return nil
}

// renderInvite builds the iCalendar document for a single occurrence
func renderInvite(reminder *models.Reminder, alert AlertContext) (string, error) {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("remindot-%d-%s", reminder.ID, alert.Name))
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, alert.EventTime)
	event.Props.SetText(ical.PropSummary, reminder.Title)
	if reminder.Description != "" {
		event.Props.SetText(ical.PropDescription, reminder.Description)
	}
	if reminder.Location != "" {
		event.Props.SetText(ical.PropLocation, reminder.Location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//RemindoT//Reminder//EN")
	cal.Props.SetText(ical.PropMethod, "REQUEST")
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode invite: %w", err)
	}
	return buf.String(), nil
}
