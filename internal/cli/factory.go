package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/ouvidoria/internal/config"
	"github.com/aretw0/ouvidoria/internal/presentation/tui"
	"github.com/aretw0/ouvidoria/pkg/adapters/console"
	"github.com/aretw0/ouvidoria/pkg/adapters/discord"
	"github.com/aretw0/ouvidoria/pkg/adapters/file"
	"github.com/aretw0/ouvidoria/pkg/adapters/memory"
	"github.com/aretw0/ouvidoria/pkg/adapters/redis"
	"github.com/aretw0/ouvidoria/pkg/adapters/slack"
	"github.com/aretw0/ouvidoria/pkg/adapters/sqlstore"
	"github.com/aretw0/ouvidoria/pkg/observability"
	"github.com/aretw0/ouvidoria/pkg/persistence/middleware"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/aretw0/ouvidoria/pkg/report"
	"github.com/aretw0/ouvidoria/pkg/runner"
	"github.com/aretw0/ouvidoria/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is the wired bot: store, session manager, bot and metrics.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    ports.SessionStore
	Sessions *session.Manager
	Bot      *runner.Bot
	Registry *prometheus.Registry // nil when metrics are disabled

	closers []io.Closer
}

// NewApp builds the application described by cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	store, locker, err := app.createStore(cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	managerOpts := []session.Option{session.WithLogger(logger)}
	if locker != nil {
		managerOpts = append(managerOpts,
			session.WithLocker(locker),
			session.WithLockTTL(cfg.Store.Redis.LockTTL),
		)
	}
	app.Sessions = session.NewManager(store, managerOpts...)

	botOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithRenderer(report.NewRenderer(report.WithLetterhead(cfg.Report))),
		runner.WithHooks(observability.LoggingHooks(logger)),
		runner.WithSendTimeout(cfg.Bot.SendTimeout),
		runner.WithMaxInputSize(cfg.Input.MaxSize),
	}
	if cfg.Metrics.Enabled {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		botOpts = append(botOpts, runner.WithHooks(observability.NewMetrics(app.Registry).Hooks()))
	}
	app.Bot = runner.NewBot(app.Sessions, botOpts...)

	return app, nil
}

// createStore opens the configured backend and wraps it with encryption
// when a key is set.
func (a *App) createStore(cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)

	switch cfg.Store.Driver {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Store.File.Dir)
	case config.StoreRedis:
		rc := cfg.Store.Redis
		opts := []redis.Option{redis.WithTTL(rc.TTL)}
		if rc.Prefix != "" {
			opts = append(opts, redis.WithPrefix(rc.Prefix))
		}
		rs := redis.New(rc.Addr, rc.Password, rc.DB, opts...)
		a.closers = append(a.closers, rs)
		store = rs
		if rc.Lock {
			prefix := rc.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			locker = redis.NewLocker(rs.Client(), prefix)
		}
	case config.StoreSQL:
		ss, err := sqlstore.Open(cfg.Store.SQL.Driver, cfg.Store.SQL.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sql store: %w", err)
		}
		a.closers = append(a.closers, ss)
		store = ss
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Encryption.Key != "" {
		enc, err := encryptionConfig(cfg.Encryption)
		if err != nil {
			_ = a.Close()
			return nil, nil, err
		}
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(enc))
	}
	return store, locker, nil
}

func encryptionConfig(c config.EncryptionConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(c.Key)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("invalid encryption.key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("invalid encryption.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}

// MetricsHandler serves the registry, or returns nil when metrics are disabled.
func (a *App) MetricsHandler() http.Handler {
	if a.Registry == nil {
		return nil
	}
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Ping checks that the store is reachable, for backends that support it.
func (a *App) Ping(ctx context.Context) error {
	for _, c := range a.closers {
		if p, ok := c.(interface{ Ping(context.Context) error }); ok {
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
		}
	}
	return nil
}

// NewTransport creates the chat transport selected by cfg.Transport.
// The console transport reads in and writes out.
func NewTransport(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) (ports.Transport, error) {
	switch cfg.Transport {
	case config.TransportConsole:
		return NewConsole(cfg, logger, in, out), nil
	case config.TransportSlack:
		a, err := slack.New(slack.AdapterOpts{
			AppToken: cfg.Slack.AppToken,
			BotToken: cfg.Slack.BotToken,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.TransportDiscord:
		a, err := discord.New(discord.AdapterOpts{
			BotToken: cfg.Discord.BotToken,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("transport %q is not a chat transport", cfg.Transport)
}

// NewConsole creates the local console transport, rendering markdown when
// attached to a terminal.
func NewConsole(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) *console.Transport {
	opts := []console.Option{
		console.WithOutputDir(cfg.Console.OutputDir),
		console.WithLogger(logger),
	}
	if cfg.Console.ConversantID != "" {
		opts = append(opts, console.WithConversant(cfg.Console.ConversantID, cfg.Console.Contact))
	}
	if console.IsTerminal(in) {
		opts = append(opts, console.WithRenderer(tui.NewRenderer()))
	}
	return console.New(in, out, opts...)
}
