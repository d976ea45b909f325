package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/RemindoT/internal/models"
)

func TestNextOccurrence(t *testing.T) {
	// Wednesday 2025-06-04 10:30 UTC
	ref := time.Date(2025, 6, 4, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "every weekday at 9",
			expr: "0 9 * * 1-5",
			want: time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "same day later hour",
			expr: "0 15 * * *",
			want: time.Date(2025, 6, 4, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "minute list",
			expr: "0,15,45 * * * *",
			want: time.Date(2025, 6, 4, 10, 45, 0, 0, time.UTC),
		},
		{
			name: "first of month",
			expr: "30 8 1 * *",
			want: time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "specific weekdays list",
			expr: "0 12 * * 1,3,5",
			want: time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.expr, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOccurrenceStrictlyAfterReference(t *testing.T) {
	// Reference sits exactly on a match; the next one must be returned.
	ref := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)

	got, err := NextOccurrence("0 9 * * *", ref)
	require.NoError(t, err)
	assert.True(t, got.After(ref))
	assert.Equal(t, time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC), got)
}

func TestNextOccurrenceInvalidExpression(t *testing.T) {
	for _, expr := range []string{"not a cron", "", "* * *", "99 99 * * *"} {
		_, err := NextOccurrence(expr, time.Now())
		assert.ErrorIs(t, err, ErrInvalidRecurrence, "expr %q", expr)
	}
}

func TestResolveEventTimeOneTime(t *testing.T) {
	date := time.Date(2025, 6, 4, 18, 0, 0, 0, time.UTC)
	r := &models.Reminder{Date: date}

	// Independent of now, even when the date is long past.
	for _, now := range []time.Time{
		date.Add(-24 * time.Hour),
		date,
		date.Add(30 * 24 * time.Hour),
	} {
		got := ResolveEventTime(r, now)
		require.NotNil(t, got)
		assert.Equal(t, date, *got)
	}
}

func TestResolveEventTimeRecurring(t *testing.T) {
	now := time.Date(2025, 6, 4, 10, 30, 0, 0, time.UTC)
	r := &models.Reminder{IsRecurring: true, Recurrence: "0 9 * * 1-5"}

	got := ResolveEventTime(r, now)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC), *got)
}

func TestResolveEventTimeInvalidRecurrence(t *testing.T) {
	r := &models.Reminder{IsRecurring: true, Recurrence: "not a cron"}
	assert.Nil(t, ResolveEventTime(r, time.Now()))
}

func TestErrInvalidRecurrenceIsTyped(t *testing.T) {
	_, err := NextOccurrence("bogus", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecurrence))
}
