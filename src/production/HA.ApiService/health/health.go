package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	config "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Config"
)

// PingFunc checks connectivity of whichever store backs the repository
type PingFunc func(ctx context.Context) error

// HealthChecker provides health check functionality
type HealthChecker struct {
	backend string
	ping    PingFunc
}

// NewHealthChecker creates a health checker for the named backend. A nil ping
// (memory backend) always reports healthy.
func NewHealthChecker(backend string, ping PingFunc) *HealthChecker {
	return &HealthChecker{backend: backend, ping: ping}
}

// CheckStoreHealth verifies the backing store is reachable
func (h *HealthChecker) CheckStoreHealth(ctx context.Context) error {
	if h.ping == nil {
		return nil
	}
	if err := h.ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

// GetHealthStatus returns the current health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	storeStatus := map[string]interface{}{"status": "ok"}
	overall := "ok"

	if err := h.CheckStoreHealth(ctx); err != nil {
		storeStatus["status"] = "error"
		storeStatus["error"] = err.Error()
		overall = "degraded"
	}

	return map[string]interface{}{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]interface{}{
			h.backend: storeStatus,
		},
	}
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a timeout context
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// ConnectMongoWithTimeout creates a MongoDB connection with a timeout context
func ConnectMongoWithTimeout(uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	clientOptions.SetServerSelectionTimeout(timeout)
	clientOptions.SetConnectTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %v", err)
	}

	// Test the connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("unable to ping MongoDB: %v", err)
	}

	return client, nil
}

// DatabaseManager handles database schema operations
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	createDevicesTable := `
		CREATE TABLE IF NOT EXISTS devices (
			device_id  TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			desired    BOOLEAN[] NOT NULL,
			last_seen  TIMESTAMPTZ
		);
	`

	createReportsTable := `
		CREATE TABLE IF NOT EXISTS device_reports (
			report_id   TEXT PRIMARY KEY,
			device_id   TEXT NOT NULL,
			channels    BOOLEAN[] NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
		);
	`

	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_device_reports_device_created_desc
			ON device_reports (device_id, created_at DESC);
	`

	queries := []string{
		createDevicesTable,
		createReportsTable,
		createIndexes,
	}

	for _, query := range queries {
		if _, err := dm.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}
