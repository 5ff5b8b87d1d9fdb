package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"navius/app/buildinfo"
	"navius/app/config"
	"navius/app/di"
	"navius/app/utils/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	configDir string
	runEnv    string
)

var rootCmd = &cobra.Command{
	Use:           "navius",
	Short:         "Run the Navius API server",
	Version:       buildinfo.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configDir, "config-dir", "", "configuration directory (default $CONFIG_DIR or ./config)")
	rootCmd.Flags().StringVar(&runEnv, "env", "", "run environment (default $RUN_ENV or development)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
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

	appLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	info := buildinfo.Get()
	appLogger.Info("Starting Navius",
		"version", info.Version,
		"commit", buildinfo.ShortCommit(),
		"environment", cfg.Environment,
		"address", cfg.ServerAddr())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("initializing dependency container: %w", err)
	}
	defer container.Close()

	readTimeout, writeTimeout, idleTimeout := cfg.ServerTimeouts()
	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      container.CreateRouter(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	appLogger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info("Server exited")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
