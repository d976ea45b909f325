package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/RemindoT/internal/models"
)

type fakeTransport struct {
	sent   []string
	err    error
	panics bool
}

func (f *fakeTransport) Send(_ context.Context, address string, _ *models.Reminder, _ AlertContext) error {
	if f.panics {
		panic("transport exploded")
	}
	f.sent = append(f.sent, address)
	return f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testAlert() AlertContext {
	return AlertContext{Name: "a1", OffsetMS: 1800000, EventTime: time.Now().Add(30 * time.Minute)}
}

func TestDispatchFansOutToAllContacts(t *testing.T) {
	email := &fakeTransport{}
	push := &fakeTransport{}

	d := NewDispatcher(quietLogger())
	d.Register(models.ContactModeEmail, email)
	d.Register(models.ContactModePush, push)

	r := &models.Reminder{
		ID: 7,
		Contacts: []models.Contact{
			{ID: "c1", Mode: models.ContactModeEmail, Address: "a@example.com"},
			{ID: "c2", Mode: models.ContactModePush, Address: "token-1"},
			{ID: "c3", Mode: models.ContactModeEmail, Address: "b@example.com"},
		},
	}

	results := d.Dispatch(context.Background(), r, testAlert())

	require.Len(t, results, 3)
	for _, res := range results {
		assert.NoError(t, res.Err)
	}
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, email.sent)
	assert.Equal(t, []string{"token-1"}, push.sent)
}

func TestDispatchContinuesPastFailures(t *testing.T) {
	failing := &fakeTransport{err: errors.New("boom")}
	working := &fakeTransport{}

	d := NewDispatcher(quietLogger())
	d.Register(models.ContactModeEmail, failing)
	d.Register(models.ContactModeTelegram, working)

	r := &models.Reminder{
		ID: 7,
		Contacts: []models.Contact{
			{ID: "c1", Mode: models.ContactModeEmail, Address: "a@example.com"},
			{ID: "c2", Mode: models.ContactModeTelegram, Address: "12345"},
		},
	}

	results := d.Dispatch(context.Background(), r, testAlert())

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	// The failure did not prevent the second contact's delivery.
	assert.Equal(t, []string{"12345"}, working.sent)
}

func TestDispatchMissingTransport(t *testing.T) {
	d := NewDispatcher(quietLogger())

	r := &models.Reminder{
		ID:       7,
		Contacts: []models.Contact{{ID: "c1", Mode: models.ContactModeSMS, Address: "+123"}},
	}

	results := d.Dispatch(context.Background(), r, testAlert())

	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "no transport registered")
}

func TestDispatchIsolatesPanics(t *testing.T) {
	panicking := &fakeTransport{panics: true}
	working := &fakeTransport{}

	d := NewDispatcher(quietLogger())
	d.Register(models.ContactModePush, panicking)
	d.Register(models.ContactModeEmail, working)

	r := &models.Reminder{
		ID: 7,
		Contacts: []models.Contact{
			{ID: "c1", Mode: models.ContactModePush, Address: "token-1"},
			{ID: "c2", Mode: models.ContactModeEmail, Address: "a@example.com"},
		},
	}

	results := d.Dispatch(context.Background(), r, testAlert())

	require.Len(t, results, 2)
	assert.ErrorContains(t, results[0].Err, "transport panic")
	assert.NoError(t, results[1].Err)
	assert.Equal(t, []string{"a@example.com"}, working.sent)
}

func TestDispatchNoContacts(t *testing.T) {
	d := NewDispatcher(quietLogger())
	results := d.Dispatch(context.Background(), &models.Reminder{ID: 7}, testAlert())
	assert.Empty(t, results)
}
