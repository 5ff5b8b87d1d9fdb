package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"navius/app/config"
	"navius/app/utils/database"
	"navius/app/utils/logger"
	"navius/app/utils/migration"
)

//go:embed migrations
var migrationsFS embed.FS

var (
	configDir string
	runEnv    string
	verbose   bool
	steps     int
)

var rootCmd = &cobra.Command{
	Use:           "navius-migrate",
	Short:         "Apply and roll back Navius database migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migration.Migrator, log *slog.Logger) error {
			start := time.Now()
			n, err := m.Up(cmd.Context())
			if err != nil {
				logger.LogError(log, err, "Migration run stopped", "applied", n)
				return err
			}
			logger.LogDuration(log, start, "migrate up", "applied", n)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migration.Migrator, log *slog.Logger) error {
			start := time.Now()
			n, err := m.Down(cmd.Context(), steps)
			if err != nil {
				logger.LogError(log, err, "Rollback stopped", "rolled_back", n)
				return err
			}
			logger.LogDuration(log, start, "migrate down", "rolled_back", n)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migration.Migrator, _ *slog.Logger) error {
			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), statuses)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default $CONFIG_DIR or ./config)")
	rootCmd.PersistentFlags().StringVar(&runEnv, "env", "", "run environment (default $RUN_ENV or development)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	rootCmd.AddCommand(upCmd, downCmd, statusCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Migration command failed", "error", err)
		os.Exit(1)
	}
}

func withMigrator(ctx context.Context, fn func(*migration.Migrator, *slog.Logger) error) error {
	// .env is optional
	_ = godotenv.Load()

	if configDir == "" {
		configDir = envOr("CONFIG_DIR", "./config")
	}
	if runEnv == "" {
		runEnv = envOr("RUN_ENV", "development")
	}

	cfg, err := config.LoadFrom(configDir, runEnv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	appLogger, err := logger.New(level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	conn, err := database.NewConnection(ctx, cfg.Database, appLogger)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	return fn(migration.NewMigrator(conn.DB(), appLogger, sub), appLogger)
}

func printStatus(w io.Writer, statuses []migration.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, st := range statuses {
		state := "pending"
		appliedAt := "-"
		if st.Applied {
			state = "applied"
			appliedAt = st.AppliedAt.Format(time.RFC3339)
		}
		if st.Drifted {
			state = "modified"
		}
		fmt.Fprintf(tw, "%03d\t%s\t%s\t%s\n", st.Version, st.Name, state, appliedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if verbose {
		pending := 0
		for _, st := range statuses {
			if !st.Applied {
				pending++
			}
		}
		fmt.Fprintf(w, "\n%d migrations, %d pending\n", len(statuses), pending)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
