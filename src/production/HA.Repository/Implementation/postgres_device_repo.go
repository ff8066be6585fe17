package implementation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
	interfaces "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Interfaces"
)

// PostgresDeviceRepository persists devices and their report log in PostgreSQL.
//
// The desired vector is a BOOLEAN[] column. Toggles update a single array
// element in place, so concurrent toggles on different channels and concurrent
// last_seen bumps never clobber each other.
type PostgresDeviceRepository struct {
	db       *sql.DB
	channels int
}

func NewPostgresDeviceRepository(db *sql.DB, channels int) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db, channels: channels}
}

func (r *PostgresDeviceRepository) GetOrCreateDevice(ctx context.Context, deviceID, defaultName string) (*models.Device, error) {
	insert := `
		INSERT INTO devices (device_id, name, desired)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, insert, deviceID, defaultName, pq.BoolArray(make([]bool, r.channels))); err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	query := `SELECT device_id, name, desired, last_seen FROM devices WHERE device_id = $1`

	var device models.Device
	var desired pq.BoolArray
	var lastSeen sql.NullTime

	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&device.DeviceID, &device.Name, &desired, &lastSeen)
	if err != nil {
		return nil, err
	}

	device.Desired = []bool(desired)
	if lastSeen.Valid {
		device.LastSeen = &lastSeen.Time
	}

	return &device, nil
}

func (r *PostgresDeviceRepository) TouchLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error {
	query := `UPDATE devices SET last_seen = $2 WHERE device_id = $1`

	result, err := r.db.ExecContext(ctx, query, deviceID, seenAt)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return interfaces.ErrDeviceNotFound
	}

	return nil
}

func (r *PostgresDeviceRepository) ToggleDesiredChannel(ctx context.Context, deviceID string, channel int) (bool, error) {
	if channel < 1 || channel > r.channels {
		return false, interfaces.ErrInvalidChannel
	}

	// Postgres arrays are 1-based, so the channel index maps directly.
	query := `
		UPDATE devices
		SET desired[$2] = NOT desired[$2]
		WHERE device_id = $1
		RETURNING desired[$2]
	`

	var newState bool
	err := r.db.QueryRowContext(ctx, query, deviceID, channel).Scan(&newState)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, interfaces.ErrDeviceNotFound
		}
		return false, err
	}

	return newState, nil
}

func (r *PostgresDeviceRepository) SetAllDesiredChannels(ctx context.Context, deviceID string, state bool) error {
	query := `UPDATE devices SET desired = $2 WHERE device_id = $1`

	desired := make([]bool, r.channels)
	for i := range desired {
		desired[i] = state
	}

	result, err := r.db.ExecContext(ctx, query, deviceID, pq.BoolArray(desired))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return interfaces.ErrDeviceNotFound
	}

	return nil
}

func (r *PostgresDeviceRepository) AppendReport(ctx context.Context, deviceID string, channels []bool) (*models.DeviceReport, error) {
	query := `
		INSERT INTO device_reports (report_id, device_id, channels, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at
	`

	report := models.DeviceReport{
		ReportID: uuid.New().String(),
		DeviceID: deviceID,
		Channels: channels,
	}

	err := r.db.QueryRowContext(ctx, query, report.ReportID, deviceID, pq.BoolArray(channels)).Scan(&report.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, interfaces.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to append report: %w", err)
	}

	return &report, nil
}

func (r *PostgresDeviceRepository) ListRecentReports(ctx context.Context, deviceID string, limit int) ([]models.DeviceReport, error) {
	if limit <= 0 || limit > interfaces.RecentReportLimit {
		limit = interfaces.RecentReportLimit
	}

	query := `
		SELECT report_id, device_id, channels, created_at
		FROM device_reports
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.DeviceReport
	for rows.Next() {
		var report models.DeviceReport
		var channels pq.BoolArray

		if err := rows.Scan(&report.ReportID, &report.DeviceID, &channels, &report.CreatedAt); err != nil {
			return nil, err
		}

		report.Channels = []bool(channels)
		reports = append(reports, report)
	}

	return reports, rows.Err()
}
