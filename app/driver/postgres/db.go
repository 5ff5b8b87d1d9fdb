package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"navius/app/config"
	"navius/app/utils/dsn"
	applog "navius/app/utils/logger"
)

const healthCheckTimeout = 5 * time.Second

// DB represents a PostgreSQL database connection pool
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	cfg    config.DatabaseConfig
}

// PoolStats is a snapshot of pool usage
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// NewConnection creates the pool described by cfg and verifies it with a ping
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger = applog.DatabaseLogger(logger)

	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutSeconds)*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		"url", dsn.Mask(cfg.URL),
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns)

	return &DB{
		pool:   pool,
		logger: logger,
		cfg:    cfg,
	}, nil
}

func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.MaxLifetimeSeconds > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetimeSeconds) * time.Second
	}
	if cfg.IdleTimeoutSeconds > 0 {
		poolConfig.MaxConnIdleTime = time.Duration(cfg.IdleTimeoutSeconds) * time.Second
	}
	if cfg.ConnectTimeoutSeconds > 0 {
		poolConfig.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	}

	return poolConfig, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
		db.logger.Info("database connection closed")
	}
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Config returns the settings the pool was built from
func (db *DB) Config() config.DatabaseConfig {
	return db.cfg
}

// HealthCheck checks if the database is healthy
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.pool == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return db.pool.Ping(ctx)
}

// Stats reports current pool usage
func (db *DB) Stats() PoolStats {
	if db.pool == nil {
		return PoolStats{}
	}
	s := db.pool.Stat()
	return PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}
}

// PoolDetails renders Stats for the database health indicator
func (db *DB) PoolDetails() map[string]string {
	s := db.Stats()
	return map[string]string{
		"pool_total":    strconv.Itoa(int(s.TotalConns)),
		"pool_idle":     strconv.Itoa(int(s.IdleConns)),
		"pool_acquired": strconv.Itoa(int(s.AcquiredConns)),
	}
}
