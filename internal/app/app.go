// Package app wires configuration, storage, services and handlers into one
// Application that the CLI commands run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/fios-chat/internal/config"
	"github.com/iyunix/fios-chat/internal/handlers"
	"github.com/iyunix/fios-chat/internal/metrics"
	"github.com/iyunix/fios-chat/internal/ratelimit"
	"github.com/iyunix/fios-chat/internal/render"
	chatrepo "github.com/iyunix/fios-chat/internal/repository/chat"
	"github.com/iyunix/fios-chat/internal/services"
	"github.com/iyunix/fios-chat/internal/services/chat"
	"github.com/iyunix/fios-chat/internal/services/dispatch"
	"github.com/iyunix/fios-chat/internal/services/webhook"
)

// Application aggregates all services and handlers
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Store      *chat.Store
	Router     *webhook.Router
	Dispatcher *dispatch.Dispatcher
	Limiter    *ratelimit.MemoryRateLimiter

	ChatHandler   *handlers.ChatHandler
	LogHandler    *handlers.LogHandler
	EventsHandler *handlers.EventsHandler

	closeLog func() error
}

// Provider functions

func ProvideLogger(cfg *config.Config) (*slog.Logger, func() error) {
	return services.NewLogger("fios_chat", cfg.LogLevel, cfg.LogFile)
}

func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	if err := chatrepo.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func ProvideWebhookRouter(cfg *config.Config) (*webhook.Router, error) {
	router := webhook.NewRouter(webhook.EndpointsFromConfig(cfg.Webhooks))
	if cfg.IsProduction() {
		if err := router.Validate(); err != nil {
			return nil, err
		}
	}
	return router, nil
}

func ProvideWebhookClient(cfg *config.Config) *webhook.Client {
	return webhook.NewClient(&webhook.ClientConfig{
		Timeout:      cfg.WebhookTimeout,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})
}

func ProvideDispatchConfig(cfg *config.Config) *dispatch.Config {
	dc := dispatch.DefaultConfig()
	dc.SimulatedDelay = cfg.SimulatedDelay
	return dc
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New builds the Application. The store loads its snapshot here, so the
// database must be reachable; a corrupt snapshot only logs and starts empty.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logger, closeLog := ProvideLogger(cfg)

	a := &Application{Config: cfg, Logger: logger, closeLog: closeLog}

	db, err := ProvideDB(cfg)
	if err != nil {
		closeLog()
		return nil, err
	}
	a.DB = db

	a.Router, err = ProvideWebhookRouter(cfg)
	if err != nil {
		a.closeDB()
		closeLog()
		return nil, fmt.Errorf("webhook configuration: %w", err)
	}

	a.Registry = ProvideRegistry()
	a.Metrics = metrics.NewMetrics(a.Registry)

	repo := chatrepo.NewChatRepository(db, cfg.StorageKey)
	a.Store = chat.NewStore(ctx, repo, logger.With("component", "store"))

	a.Dispatcher, err = dispatch.NewDispatcher(
		ProvideDispatchConfig(cfg),
		a.Store,
		a.Router,
		ProvideWebhookClient(cfg),
		logger.With("component", "dispatcher"),
		a.Metrics,
	)
	if err != nil {
		a.closeDB()
		closeLog()
		return nil, err
	}

	if cfg.SendRateLimit > 0 {
		a.Limiter = ratelimit.NewMemoryRateLimiter(ratelimit.SendConfig(cfg.SendRateLimit))
	}

	a.ChatHandler = handlers.NewChatHandler(a.Store, a.Dispatcher, a.Router, render.NewRenderer())
	a.LogHandler = handlers.NewLogHandler(logger.With("component", "frontend"))
	a.EventsHandler = handlers.NewEventsHandler(a.Dispatcher, logger.With("component", "events"))

	return a, nil
}

// Close flushes the store and releases the database and log file.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Limiter != nil {
		a.Limiter.Close()
	}
	if err := a.Store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeDB(); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeLog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *Application) closeDB() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
