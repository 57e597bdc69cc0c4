package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

// LoggingHooks logs every lifecycle event. Record values are never logged,
// only the names of the fields that changed.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Created {
				logger.InfoContext(ctx, "conversation started", "conversant_id", e.ConversantID)
				return
			}
			logger.DebugContext(ctx, "transition",
				"conversant_id", e.ConversantID,
				"from", e.From,
				"to", e.To,
				"invalid", e.Invalid,
				"changed", e.Changed,
			)
		},
		OnReport: func(ctx context.Context, e *domain.ReportEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "report render failed",
					"conversant_id", e.ConversantID,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "report generated",
				"conversant_id", e.ConversantID,
				"report_id", e.ReportID,
				"duration", e.Duration,
			)
		},
		OnSendFailure: func(ctx context.Context, e *domain.SendFailureEvent) {
			logger.WarnContext(ctx, "send failed",
				"conversant_id", e.ConversantID,
				"attachment", e.Attachment,
				"err", e.Err,
			)
		},
	}
}
