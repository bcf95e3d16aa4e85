// Package control wires askhub's components into a running service.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/askhub/internal/auth"
	"github.com/vietddude/askhub/internal/core/config"
	"github.com/vietddude/askhub/internal/health"
	redisclient "github.com/vietddude/askhub/internal/infra/redis"
	"github.com/vietddude/askhub/internal/locale"
	"github.com/vietddude/askhub/internal/skill"
)

// App is the main application struct that manages the service lifecycle.
type App struct {
	cfg          *config.AppConfig
	router       *skill.Router
	healthMon    *health.Monitor
	healthServer *health.Server
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	if err := cfg.Hub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hub config: %w", err)
	}

	catalog, err := loadCatalog(cfg.Locale)
	if err != nil {
		return nil, err
	}

	monitor := health.NewMonitor()

	// Token cache: Redis when configured, in-process otherwise
	var store auth.Store
	var rdb *redisclient.Client
	if cfg.Redis.Enabled() {
		rdb, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		store = redisclient.NewTokenStore(rdb)
		monitor.AddCheck("redis", rdb.Ping)
		slog.Info("Using Redis token cache")
	} else {
		store = auth.NewMemoryStore()
		slog.Info("Using in-memory token cache")
	}

	router := skill.NewRouter(catalog, skill.NewHubFactory(cfg.Hub, store, monitor))

	server := health.NewServer(monitor, cfg.Server.Port)
	server.Handle("/skill", router)

	return &App{
		cfg:          cfg,
		router:       router,
		healthMon:    monitor,
		healthServer: server,
		redisClient:  rdb,
		log:          slog.With("component", "app"),
	}, nil
}

func loadCatalog(cfg config.LocaleConfig) (*locale.Catalog, error) {
	if cfg.File == "" {
		return locale.Default(cfg.Default)
	}
	catalog, err := locale.LoadFile(cfg.File, cfg.Default)
	if err != nil {
		return nil, err
	}
	slog.Info("Loaded locale file", "path", cfg.File)
	return catalog, nil
}

// Router returns the skill router.
func (a *App) Router() *skill.Router {
	return a.router
}

// Monitor returns the hub health monitor.
func (a *App) Monitor() *health.Monitor {
	return a.healthMon
}

// Start starts the HTTP server in the background.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	a.log.Info("Serving skill endpoint", "port", a.cfg.Server.Port, "hub", a.cfg.Hub.URL)
	return nil
}

// Stop stops the server and releases connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping askhub...")

	// Close Redis
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	// Stop HTTP Server
	return a.healthServer.Stop(ctx)
}
