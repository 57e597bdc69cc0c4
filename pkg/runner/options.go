package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
)

// DefaultSendTimeout bounds each outbound message.
const DefaultSendTimeout = 30 * time.Second

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithRenderer replaces the report renderer.
func WithRenderer(renderer ports.ReportRenderer) Option {
	return func(b *Bot) {
		b.renderer = renderer
	}
}

// WithHooks registers lifecycle hooks. Repeated calls merge.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithSendTimeout bounds each outbound message. Zero disables the bound.
func WithSendTimeout(d time.Duration) Option {
	return func(b *Bot) {
		b.sendTimeout = d
	}
}

// WithMaxInputSize overrides the sanitizer size limit.
func WithMaxInputSize(n int) Option {
	return func(b *Bot) {
		b.maxInputSize = n
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		b.now = now
	}
}
