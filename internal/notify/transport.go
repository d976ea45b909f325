package notify

import (
	"context"
	"time"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// AlertContext carries the firing alert's identity to the transports
type AlertContext struct {
	Name      string
	OffsetMS  int64
	EventTime time.Time
}

// Transport delivers a notification for one contact channel. Implementations
// report failure through the returned error and must never panic across the
// interface; timeouts are the transport's own responsibility.
type Transport interface {
	Send(ctx context.Context, address string, reminder *models.Reminder, alert AlertContext) error
}
