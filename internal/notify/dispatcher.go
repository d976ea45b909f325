package notify

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
	"github.com/Kerhoff/RemindoT/pkg/metrics"
)

// ContactResult records the delivery outcome for a single contact
type ContactResult struct {
	Contact models.Contact
	Err     error
}

// Dispatcher fans a firing alert out to the reminder's contacts. Each
// contact's delivery is isolated: a failing channel is logged and the
// remaining contacts are still attempted.
type Dispatcher struct {
	transports map[models.ContactMode]Transport
	logger     *logrus.Logger
}

// NewDispatcher creates a dispatcher with no transports registered
func NewDispatcher(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		transports: make(map[models.ContactMode]Transport),
		logger:     logger,
	}
}

// Register installs the transport for a contact mode, replacing any previous one
func (d *Dispatcher) Register(mode models.ContactMode, t Transport) {
	d.transports[mode] = t
}

// Dispatch delivers the alert to every contact of the reminder and returns
// the per-contact outcomes. Failures never abort the fan-out and never
// propagate; the aggregate error is logged as an observability event only.
func (d *Dispatcher) Dispatch(ctx context.Context, reminder *models.Reminder, alert AlertContext) []ContactResult {
	results := make([]ContactResult, 0, len(reminder.Contacts))
	var errs *multierror.Error

	for _, contact := range reminder.Contacts {
		err := d.sendOne(ctx, contact, reminder, alert)
		if err != nil {
			d.logger.WithError(err).Warnf("Failed to deliver reminder %d to %s contact %s",
				reminder.ID, contact.Mode, contact.Address)
			metrics.DispatchFailures.WithLabelValues(string(contact.Mode)).Inc()
			errs = multierror.Append(errs, fmt.Errorf("contact %s (%s): %w", contact.ID, contact.Mode, err))
		}
		results = append(results, ContactResult{Contact: contact, Err: err})
	}

	if err := errs.ErrorOrNil(); err != nil {
		d.logger.Warnf("Reminder %d dispatched with partial failures: %v", reminder.ID, err)
	}

	return results
}

// sendOne delivers to a single contact, converting a missing transport or a
// transport panic into an ordinary error.
func (d *Dispatcher) sendOne(ctx context.Context, contact models.Contact, reminder *models.Reminder, alert AlertContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()

	t, ok := d.transports[contact.Mode]
	if !ok {
		return fmt.Errorf("no transport registered for mode %q", contact.Mode)
	}

	return t.Send(ctx, contact.Address, reminder, alert)
}
