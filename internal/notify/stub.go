package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// StubTransport logs and skips delivery. Used for channels without a real
// implementation yet (sms, call).
type StubTransport struct {
	mode   models.ContactMode
	logger *logrus.Logger
}

// NewStubTransport creates a log-and-skip transport for the given mode
func NewStubTransport(mode models.ContactMode, logger *logrus.Logger) *StubTransport {
	return &StubTransport{mode: mode, logger: logger}
}

// Send logs the would-be delivery and reports success
func (t *StubTransport) Send(_ context.Context, address string, reminder *models.Reminder, _ AlertContext) error {
	t.logger.Infof("Skipping %s delivery for reminder %d to %s: channel not implemented",
		t.mode, reminder.ID, address)
	return nil
}
