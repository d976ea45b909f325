package repository

import (
	"context"
	"time"
)

// NoopCallbackScheduler satisfies CallbackScheduler for deployments that run
// the polling loop and have no external delayed-delivery mechanism.
type NoopCallbackScheduler struct{}

// NewNoopCallbackScheduler creates a no-op callback scheduler
func NewNoopCallbackScheduler() CallbackScheduler {
	return NoopCallbackScheduler{}
}

func (NoopCallbackScheduler) ScheduleCallback(context.Context, int64, string, time.Time) error {
	return nil
}

func (NoopCallbackScheduler) CancelCallbacks(context.Context, int64) error {
	return nil
}
