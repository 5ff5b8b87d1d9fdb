// Package database opens the database/sql connection used by the migration
// runner. Request handling uses the pgx pool in driver/postgres instead.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"navius/app/config"
	"navius/app/utils/dsn"
	applog "navius/app/utils/logger"
)

// Connection represents a database connection wrapper
type Connection struct {
	db     *sql.DB
	config config.DatabaseConfig
	logger *slog.Logger
}

// NewConnection opens and pings a lib/pq connection for cfg.URL
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Connection, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is not configured")
	}

	conn := &Connection{
		config: cfg,
		logger: applog.DatabaseLogger(logger),
	}

	if err := conn.connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return conn, nil
}

func (c *Connection) connect(ctx context.Context) error {
	c.logger.Info("Connecting to database", "url", dsn.Mask(c.config.URL))

	db, err := sql.Open("postgres", c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	applyPoolSettings(db, c.config)

	timeout := time.Duration(c.config.ConnectTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.db = db
	c.logger.Info("Database connection established successfully")
	return nil
}

func applyPoolSettings(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConnections))
	}
	if cfg.MinConnections > 0 {
		db.SetMaxIdleConns(int(cfg.MinConnections))
	}
	if cfg.MaxLifetimeSeconds > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.MaxLifetimeSeconds) * time.Second)
	}
	if cfg.IdleTimeoutSeconds > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.IdleTimeoutSeconds) * time.Second)
	}
}

// DB returns the underlying *sql.DB instance
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	if c.db != nil {
		c.logger.Info("Closing database connection")
		return c.db.Close()
	}
	return nil
}
