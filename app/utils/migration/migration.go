package migration

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	applog "navius/app/utils/logger"
)

// Migration is one versioned schema change loaded from NNN_name.up.sql and
// NNN_name.down.sql.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	Checksum  string
	AppliedAt time.Time
}

// MigrationStatus reports whether a known migration has been applied
type MigrationStatus struct {
	Version   int        `json:"version"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
	Drifted   bool       `json:"drifted"`
}

type Migrator struct {
	db           *sql.DB
	logger       *slog.Logger
	migrationsFS fs.FS
}

// NewMigrator creates a new migration manager
func NewMigrator(db *sql.DB, logger *slog.Logger, migrationsFS fs.FS) *Migrator {
	return &Migrator{
		db:           db,
		logger:       applog.WithComponent(logger, "migrator"),
		migrationsFS: migrationsFS,
	}
}

// CreateMigrationsTable creates the migrations tracking table
func (m *Migrator) CreateMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		checksum VARCHAR(64) NOT NULL
	)`

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// LoadMigrations loads all migration files from the filesystem, sorted by
// version. Files whose name does not start with a numeric version are
// skipped; an up file without its down file is an error.
func (m *Migrator) LoadMigrations() ([]Migration, error) {
	return loadMigrations(m.migrationsFS, m.logger)
}

func loadMigrations(fsys fs.FS, logger *slog.Logger) ([]Migration, error) {
	migrations := make([]Migration, 0)
	seen := make(map[int]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".up.sql") {
			return nil
		}

		filename := path.Base(p)
		parts := strings.SplitN(strings.TrimSuffix(filename, ".up.sql"), "_", 2)
		if len(parts) < 2 || parts[1] == "" {
			logger.Warn("Invalid migration filename format", "filename", filename)
			return nil
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			logger.Warn("Invalid migration version", "filename", filename, "error", err)
			return nil
		}
		if prev, dup := seen[version]; dup {
			return fmt.Errorf("duplicate migration version %d: %s and %s", version, prev, filename)
		}
		seen[version] = filename

		upContent, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read up migration %s: %w", p, err)
		}

		downPath := strings.TrimSuffix(p, ".up.sql") + ".down.sql"
		downContent, err := fs.ReadFile(fsys, downPath)
		if err != nil {
			return fmt.Errorf("failed to read down migration %s: %w", downPath, err)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     parts[1],
			UpSQL:    string(upContent),
			DownSQL:  string(downContent),
			Checksum: checksum(string(upContent)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// GetAppliedMigrations returns the applied migrations, oldest first
func (m *Migrator) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	query := `SELECT version, name, applied_at, checksum FROM schema_migrations ORDER BY version`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var mig Migration
		if err := rows.Scan(&mig.Version, &mig.Name, &mig.AppliedAt, &mig.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		migrations = append(migrations, mig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}

	return migrations, nil
}

// Up runs all pending migrations and returns how many were applied. On
// failure the count covers the migrations committed before it.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	all, applied, err := m.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if err := verify(all, applied); err != nil {
		return 0, err
	}

	return runEach(pending(all, applied), "apply", func(mig Migration) error {
		if err := m.ApplyMigration(ctx, mig); err != nil {
			return err
		}
		m.logger.Info("Applied migration", "version", mig.Version, "name", mig.Name)
		return nil
	})
}

// runEach runs fn over migrations in order and stops at the first failure.
// The count is the number of migrations fn completed.
func runEach(migrations []Migration, verb string, fn func(Migration) error) (int, error) {
	for i, mig := range migrations {
		if err := fn(mig); err != nil {
			return i, fmt.Errorf("failed to %s migration %d: %w", verb, mig.Version, err)
		}
	}
	return len(migrations), nil
}

// Down rolls back the last steps applied migrations. steps below 1 means 1.
// On failure the count covers the rollbacks that completed.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	all, applied, err := m.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	plan, err := rollbackPlan(all, applied, steps)
	if err != nil {
		return 0, err
	}
	if len(plan) == 0 {
		m.logger.Info("No migrations to roll back")
		return 0, nil
	}

	return runEach(plan, "rollback", func(mig Migration) error {
		if err := m.RollbackMigration(ctx, mig); err != nil {
			return err
		}
		m.logger.Info("Rolled back migration", "version", mig.Version, "name", mig.Name)
		return nil
	})
}

// Status lists every known migration with its applied state
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	all, applied, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return statusOf(all, applied), nil
}

// Verify fails when an applied migration's file changed after it ran
func (m *Migrator) Verify(ctx context.Context) error {
	all, applied, err := m.snapshot(ctx)
	if err != nil {
		return err
	}
	return verify(all, applied)
}

func (m *Migrator) snapshot(ctx context.Context) ([]Migration, []Migration, error) {
	if err := m.CreateMigrationsTable(ctx); err != nil {
		return nil, nil, err
	}
	all, err := m.LoadMigrations()
	if err != nil {
		return nil, nil, err
	}
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}
	return all, applied, nil
}

// ApplyMigration applies a single migration
func (m *Migrator) ApplyMigration(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	insertQuery := `INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insertQuery, mig.Version, mig.Name, checksum(mig.UpSQL)); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// RollbackMigration rolls back a single migration
func (m *Migrator) RollbackMigration(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.DownSQL); err != nil {
		return fmt.Errorf("failed to execute rollback: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}
	return nil
}

func pending(all, applied []Migration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, mig := range applied {
		done[mig.Version] = true
	}

	var out []Migration
	for _, mig := range all {
		if !done[mig.Version] {
			out = append(out, mig)
		}
	}
	return out
}

func rollbackPlan(all, applied []Migration, steps int) ([]Migration, error) {
	if steps < 1 {
		steps = 1
	}
	byVersion := make(map[int]Migration, len(all))
	for _, mig := range all {
		byVersion[mig.Version] = mig
	}

	var plan []Migration
	for i := len(applied) - 1; i >= 0 && len(plan) < steps; i-- {
		mig, ok := byVersion[applied[i].Version]
		if !ok {
			return nil, fmt.Errorf("migration %d not found in filesystem", applied[i].Version)
		}
		plan = append(plan, mig)
	}
	return plan, nil
}

func statusOf(all, applied []Migration) []MigrationStatus {
	appliedMap := make(map[int]Migration, len(applied))
	for _, mig := range applied {
		appliedMap[mig.Version] = mig
	}

	out := make([]MigrationStatus, 0, len(all))
	for _, mig := range all {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if a, ok := appliedMap[mig.Version]; ok {
			at := a.AppliedAt
			st.Applied = true
			st.AppliedAt = &at
			st.Drifted = a.Checksum != mig.Checksum
		}
		out = append(out, st)
	}
	return out
}

func verify(all, applied []Migration) error {
	for _, st := range statusOf(all, applied) {
		if st.Drifted {
			return fmt.Errorf("migration %d (%s) was modified after it was applied", st.Version, st.Name)
		}
	}
	return nil
}

func checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
