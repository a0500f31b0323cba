package domain

import (
	"context"
	"time"
)

// Row is one non-comment line of a sequence file split into fields.
type Row struct {
	Line   int
	Fields []string
}

// SequenceSource is a secondary port that yields the rows of a sequence file.
// This interface is defined in the domain layer and implemented by adapters.
type SequenceSource interface {
	ReadRows(path string) ([]Row, error)
}

// ReportRepository is a secondary port that persists run reports.
type ReportRepository interface {
	Save(report RunReport) error
}

// Camera is a secondary port that drives the capture device.
// Calls are not interrupted by cancellation once started.
type Camera interface {
	ApplyExposure(exposure Exposure) error
	SetMirrorLockup(engaged bool, delay time.Duration) error
	TriggerCapture() error
	ReadStatus() (DeviceStatus, error)
}

// DryRunCamera is implemented by cameras whose mirror lockup would actuate
// the shutter. In dry-run mode they must not release it.
type DryRunCamera interface {
	SetDryRun(enabled bool)
}

// Notifier is a secondary port that shows short operator messages.
// Delivery failures are the adapter's concern.
type Notifier interface {
	Notify(message string, duration time.Duration)
}

// Clock is a secondary port for the time of day and for waiting.
type Clock interface {
	// Now returns the time elapsed since local midnight.
	Now() time.Duration
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}
