package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/health"
	config "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Config"
	logger "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Logger"
	implementation "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Implementation"
	interfaces "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Interfaces"
)

// Container manages dependencies and their lifecycle
type Container struct {
	config *config.Config
	logger *logger.Logger

	db          *sql.DB
	mongoClient *mongo.Client
	deviceRepo  interfaces.DeviceRepository

	// Mutex for thread-safe access
	mu sync.Mutex

	// Cleanup functions
	cleanupFuncs []func() error
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	log := logger.NewLogger(&cfg.Logging)

	return &Container{
		config: cfg,
		logger: log,
	}, nil
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase returns the PostgreSQL connection
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		db, err := health.ConnectPostgresWithTimeout(c.config, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
		c.cleanupFuncs = append(c.cleanupFuncs, db.Close)
	}

	return c.db, nil
}

// GetMongoClient returns the MongoDB client
func (c *Container) GetMongoClient() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mongoClient == nil {
		client, err := health.ConnectMongoWithTimeout(c.config.Mongo.URI, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		c.mongoClient = client
		c.cleanupFuncs = append(c.cleanupFuncs, func() error {
			return client.Disconnect(context.Background())
		})
	}

	return c.mongoClient, nil
}

// GetDeviceRepository returns the device repository for the configured backend
func (c *Container) GetDeviceRepository() (interfaces.DeviceRepository, error) {
	c.mu.Lock()
	if c.deviceRepo != nil {
		defer c.mu.Unlock()
		return c.deviceRepo, nil
	}
	c.mu.Unlock()

	channels := c.config.Device.ChannelCount

	var repo interfaces.DeviceRepository
	switch c.config.Store.Backend {
	case "postgres":
		db, err := c.GetDatabase()
		if err != nil {
			return nil, err
		}
		repo = implementation.NewPostgresDeviceRepository(db, channels)
	case "mongodb":
		client, err := c.GetMongoClient()
		if err != nil {
			return nil, err
		}
		repo = implementation.NewMongoDeviceRepository(client.Database(c.config.Mongo.DBName), channels)
	case "memory":
		repo = implementation.NewMemoryDeviceRepository(channels)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", c.config.Store.Backend)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deviceRepo == nil {
		c.deviceRepo = repo
	}
	return c.deviceRepo, nil
}

// GetHealthChecker returns a health checker for the configured backend
func (c *Container) GetHealthChecker() (*health.HealthChecker, error) {
	switch c.config.Store.Backend {
	case "postgres":
		db, err := c.GetDatabase()
		if err != nil {
			return nil, err
		}
		return health.NewHealthChecker("postgres", db.PingContext), nil
	case "mongodb":
		client, err := c.GetMongoClient()
		if err != nil {
			return nil, err
		}
		return health.NewHealthChecker("mongodb", func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}), nil
	default:
		return health.NewHealthChecker(c.config.Store.Backend, nil), nil
	}
}

// InitializeStore prepares the configured backend (creates tables for the
// postgres backend; the others need no schema bootstrap)
func (c *Container) InitializeStore(ctx context.Context) error {
	if c.config.Store.Backend != "postgres" {
		return nil
	}

	db, err := c.GetDatabase()
	if err != nil {
		return err
	}

	if err := health.NewDatabaseManager(db).CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// Shutdown runs all registered cleanup functions
func (c *Container) Shutdown(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "cleanup failed")
		}
	}
	c.cleanupFuncs = nil
}
