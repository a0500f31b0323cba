package clock

import (
	"context"
	"time"
)

// System implements domain.Clock with the local wall clock.
// This is a secondary adapter.
type System struct {
	now func() time.Time
}

// NewSystem creates a wall clock.
func NewSystem() *System {
	return &System{now: time.Now}
}

// Now returns the time elapsed since local midnight.
func (s *System) Now() time.Duration {
	return SinceMidnight(s.now())
}

// Sleep blocks for d or until ctx is done.
func (s *System) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SinceMidnight returns the offset of t from the start of its day.
func SinceMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	return t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}
