package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/askhub/internal/control"
	"github.com/vietddude/askhub/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "askhub",
	Short: "Askhub voice answer relay",
	Long:  `Askhub relays spoken answers from a voice assistant to the pending question of a home-automation hub.`,
	Run:   runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the skill endpoint with health and metrics",
	Run:   runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

// setup loads .env and the configuration, then initializes logging.
func setup() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

// loadConfig reads path, falling back to ASKHUB_* variables when the
// default config file does not exist.
func loadConfig(path string) (*config.AppConfig, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == "config.yaml" {
		return config.FromEnv(), nil
	}
	return cfg, err
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := setup()

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize askhub", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start askhub", "error", err)
		os.Exit(1)
	}

	slog.Info("Askhub started", "config", cfgPath)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
