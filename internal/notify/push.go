package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// PushTransport delivers reminder notifications through Firebase Cloud
// Messaging. The contact address is the device's FCM registration token.
type PushTransport struct {
	client *messaging.Client
	logger *logrus.Logger
}

// NewPushTransport initializes the Firebase app from a service account
// credentials file and returns a ready messaging transport.
func NewPushTransport(ctx context.Context, credentialsFile string, logger *logrus.Logger) (*PushTransport, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM client: %w", err)
	}

	return &PushTransport{client: client, logger: logger}, nil
}

// Send pushes the reminder to the device identified by the FCM token
func (t *PushTransport) Send(ctx context.Context, address string, reminder *models.Reminder, alert AlertContext) error {
	msg := &messaging.Message{
		Token: address,
		Notification: &messaging.Notification{
			Title: reminder.Title,
			Body:  reminder.Description,
		},
		Data: map[string]string{
			"reminder_id": strconv.FormatInt(reminder.ID, 10),
			"alert_id":    alert.Name,
			"offset_ms":   strconv.FormatInt(alert.OffsetMS, 10),
			"event_time":  alert.EventTime.Format(time.RFC3339),
		},
	}

	id, err := t.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}

	t.logger.Debugf("Sent push for reminder %d (message %s)", reminder.ID, id)
	return nil
}
