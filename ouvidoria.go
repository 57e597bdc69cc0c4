package ouvidoria

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/pkg/adapters/memory"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/aretw0/ouvidoria/pkg/report"
	"github.com/aretw0/ouvidoria/pkg/runner"
	"github.com/aretw0/ouvidoria/pkg/session"
)

// Engine is the high-level entry point for embedding the intake bot.
// It wires a session store, a report renderer and the bot loop.
type Engine struct {
	bot        *runner.Bot
	sessions   *session.Manager
	store      ports.SessionStore
	locker     ports.DistributedLocker
	letterhead *report.Letterhead
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore replaces the default in-memory session store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLetterhead customizes the report letterhead.
func WithLetterhead(lh report.Letterhead) Option {
	return func(e *Engine) {
		e.letterhead = &lh
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. Without options it keeps sessions in memory
// and renders reports with the default letterhead.
func New(opts ...Option) *Engine {
	eng := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	var sessionOpts []session.Option
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	sessionOpts = append(sessionOpts, session.WithLogger(eng.logger))
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	var reportOpts []report.Option
	if eng.letterhead != nil {
		reportOpts = append(reportOpts, report.WithLetterhead(*eng.letterhead))
	}
	eng.bot = runner.NewBot(eng.sessions,
		runner.WithLogger(eng.logger),
		runner.WithHooks(eng.hooks),
		runner.WithRenderer(report.NewRenderer(reportOpts...)),
	)
	return eng
}

// Handle processes one inbound message and delivers the replies through out.
func (e *Engine) Handle(ctx context.Context, in domain.InboundMessage, out ports.Sender) error {
	return e.bot.Handle(ctx, in, out)
}

// Reply processes a message and returns the replies instead of sending them.
func (e *Engine) Reply(ctx context.Context, conversantID, text string) ([]domain.OutboundMessage, error) {
	var (
		mu      sync.Mutex
		replies []domain.OutboundMessage
	)
	collect := ports.SenderFunc(func(_ context.Context, msg domain.OutboundMessage) error {
		mu.Lock()
		defer mu.Unlock()
		replies = append(replies, msg)
		return nil
	})

	err := e.bot.Handle(ctx, domain.InboundMessage{
		Platform:     "library",
		ConversantID: conversantID,
		Contact:      conversantID,
		Text:         text,
	}, collect)
	return replies, err
}

// Bot returns the underlying bot, e.g. to drive a runner.Dispatcher.
func (e *Engine) Bot() *runner.Bot {
	return e.bot
}

// Sessions returns the session manager used by the engine.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
