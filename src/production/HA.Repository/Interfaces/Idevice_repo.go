package interfaces

import (
	"context"
	"errors"
	"time"

	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
)

// RecentReportLimit caps every report read. History is unbounded in storage
// but reads never return more than the newest ten entries.
const RecentReportLimit = 10

var (
	// ErrDeviceNotFound is returned when an operation targets a device that
	// has never made contact.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrInvalidChannel is returned for a channel index outside [1, N].
	ErrInvalidChannel = errors.New("invalid channel")
)

// DeviceRepository is the durable record of device identity, desired channel
// state, and the append-only report log.
//
// Desired-state writes are field-scoped: a TouchLastSeen must never revert a
// concurrent toggle, and two concurrent toggles on different channels of the
// same device must both take effect.
type DeviceRepository interface {
	// GetOrCreateDevice returns the device by id, atomically creating it with
	// an all-false desired vector and the given default name on first contact.
	// Only one record may ever be created per device id.
	GetOrCreateDevice(ctx context.Context, deviceID, defaultName string) (*models.Device, error)

	// TouchLastSeen stamps the device's last_seen field, leaving every other
	// field untouched.
	TouchLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error

	// ToggleDesiredChannel flips exactly one desired channel (1-based index)
	// and returns the new state.
	ToggleDesiredChannel(ctx context.Context, deviceID string, channel int) (bool, error)

	// SetAllDesiredChannels sets every desired channel to the same state.
	SetAllDesiredChannels(ctx context.Context, deviceID string, state bool) error

	// AppendReport records an immutable reported-state snapshot with a server
	// timestamp. It fails with ErrDeviceNotFound if the device does not exist;
	// it never creates one.
	AppendReport(ctx context.Context, deviceID string, channels []bool) (*models.DeviceReport, error)

	// ListRecentReports returns up to limit reports, newest first.
	ListRecentReports(ctx context.Context, deviceID string, limit int) ([]models.DeviceReport, error)
}
