package implementation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
	interfaces "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Interfaces"
)

// MemoryDeviceRepository is an in-process backend for local development and
// tests (STORE_BACKEND=memory). All mutations run under one mutex, which
// gives the same per-device atomicity the database backends get from
// field-scoped updates.
type MemoryDeviceRepository struct {
	mu       sync.Mutex
	channels int
	devices  map[string]*models.Device
	reports  map[string][]models.DeviceReport
}

func NewMemoryDeviceRepository(channels int) *MemoryDeviceRepository {
	return &MemoryDeviceRepository{
		channels: channels,
		devices:  make(map[string]*models.Device),
		reports:  make(map[string][]models.DeviceReport),
	}
}

func copyDevice(d *models.Device) *models.Device {
	out := *d
	out.Desired = append([]bool(nil), d.Desired...)
	if d.LastSeen != nil {
		seen := *d.LastSeen
		out.LastSeen = &seen
	}
	return &out
}

func (r *MemoryDeviceRepository) GetOrCreateDevice(_ context.Context, deviceID, defaultName string) (*models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		device = &models.Device{
			DeviceID: deviceID,
			Name:     defaultName,
			Desired:  make([]bool, r.channels),
		}
		r.devices[deviceID] = device
	}

	return copyDevice(device), nil
}

func (r *MemoryDeviceRepository) TouchLastSeen(_ context.Context, deviceID string, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return interfaces.ErrDeviceNotFound
	}

	device.LastSeen = &seenAt
	return nil
}

func (r *MemoryDeviceRepository) ToggleDesiredChannel(_ context.Context, deviceID string, channel int) (bool, error) {
	if channel < 1 || channel > r.channels {
		return false, interfaces.ErrInvalidChannel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return false, interfaces.ErrDeviceNotFound
	}

	device.Desired[channel-1] = !device.Desired[channel-1]
	return device.Desired[channel-1], nil
}

func (r *MemoryDeviceRepository) SetAllDesiredChannels(_ context.Context, deviceID string, state bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return interfaces.ErrDeviceNotFound
	}

	for i := range device.Desired {
		device.Desired[i] = state
	}
	return nil
}

func (r *MemoryDeviceRepository) AppendReport(_ context.Context, deviceID string, channels []bool) (*models.DeviceReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[deviceID]; !ok {
		return nil, interfaces.ErrDeviceNotFound
	}

	report := models.DeviceReport{
		ReportID:  uuid.New().String(),
		DeviceID:  deviceID,
		Channels:  append([]bool(nil), channels...),
		CreatedAt: time.Now().UTC(),
	}
	r.reports[deviceID] = append(r.reports[deviceID], report)

	return &report, nil
}

func (r *MemoryDeviceRepository) ListRecentReports(_ context.Context, deviceID string, limit int) ([]models.DeviceReport, error) {
	if limit <= 0 || limit > interfaces.RecentReportLimit {
		limit = interfaces.RecentReportLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.reports[deviceID]
	if len(history) < limit {
		limit = len(history)
	}

	// History is appended chronologically; walk backwards for newest first.
	reports := make([]models.DeviceReport, 0, limit)
	for i := len(history) - 1; i >= len(history)-limit; i-- {
		report := history[i]
		report.Channels = append([]bool(nil), report.Channels...)
		reports = append(reports, report)
	}

	return reports, nil
}
