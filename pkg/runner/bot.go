package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/internal/runtime"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/aretw0/ouvidoria/pkg/report"
	"github.com/aretw0/ouvidoria/pkg/session"
)

// Bot hosts the intake conversation for every conversant. It owns the
// control flow around the state machine: session lookup, report rendering,
// state commit and outbound delivery.
type Bot struct {
	sessions     *session.Manager
	renderer     ports.ReportRenderer
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	sendTimeout  time.Duration
	maxInputSize int
	now          func() time.Time
}

// NewBot creates a Bot backed by the session manager.
func NewBot(sessions *session.Manager, opts ...Option) *Bot {
	b := &Bot{
		sessions:    sessions,
		renderer:    report.NewRenderer(),
		logger:      logging.NewNop(),
		sendTimeout: DefaultSendTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sessions exposes the session manager for administration.
func (b *Bot) Sessions() *session.Manager {
	return b.sessions
}

// Handle processes one inbound message and delivers the replies through out.
//
// The transition is committed before anything is sent. A delivery failure is
// returned wrapped in domain.ErrSendFailure and does not undo the transition.
func (b *Bot) Handle(ctx context.Context, in domain.InboundMessage, out ports.Sender) error {
	text, err := b.sanitize(in.Text)
	if err != nil {
		b.logger.Debug("Input rejected", "conversant_id", in.ConversantID, "err", err)
		return b.deliver(ctx, out, in.ConversantID, []domain.OutboundMessage{{
			ConversantID: in.ConversantID,
			Text:         runtime.MsgInputRejected,
		}})
	}

	outbound, err := b.process(ctx, in, text)
	if err != nil {
		return err
	}
	return b.deliver(ctx, out, in.ConversantID, outbound)
}

func (b *Bot) sanitize(input string) (string, error) {
	var (
		clean string
		err   error
	)
	if b.maxInputSize > 0 {
		clean, err = SanitizeInputLimit(input, b.maxInputSize)
	} else {
		clean, err = SanitizeInput(input)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInputRejected, err)
	}
	return clean, nil
}

// process runs the transition under the conversant's lock and returns the
// messages to send once the lock is released.
func (b *Bot) process(ctx context.Context, in domain.InboundMessage, text string) ([]domain.OutboundMessage, error) {
	var outbound []domain.OutboundMessage

	err := b.sessions.Update(ctx, in.ConversantID, func(tx *session.Transaction) error {
		s, created, err := tx.LoadOrCreate(in.Contact)
		if err != nil {
			return err
		}

		if created {
			res := runtime.Start(s)
			outbound = b.materialize(in.ConversantID, res.Actions, nil)
			b.fireTransition(ctx, &domain.TransitionEvent{
				EventBase: b.event(domain.EventTransition, in.ConversantID),
				To:        s.State,
				Created:   true,
			})
			return nil
		}

		res, stepErr := runtime.Step(s, text)
		invalid := errors.Is(stepErr, domain.ErrInvalidChoice)
		if stepErr != nil && !invalid {
			return stepErr
		}

		if res.Terminal {
			rep, err := b.render(ctx, s)
			if err != nil {
				// Keep the session so the conversant can confirm again.
				outbound = b.materialize(in.ConversantID, []domain.Action{domain.Text(runtime.MsgRenderFailure)}, nil)
				return nil
			}
			if err := tx.Delete(); err != nil {
				return fmt.Errorf("failed to close session: %w", err)
			}
			outbound = b.materialize(in.ConversantID, res.Actions, rep)
			b.fireTransition(ctx, &domain.TransitionEvent{
				EventBase: b.event(domain.EventTransition, in.ConversantID),
				From:      s.State,
				To:        domain.StateCompleted,
			})
			return nil
		}

		if !invalid {
			if err := tx.Save(res.Session); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
		}
		outbound = b.materialize(in.ConversantID, res.Actions, nil)
		b.fireTransition(ctx, &domain.TransitionEvent{
			EventBase: b.event(domain.EventTransition, in.ConversantID),
			From:      s.State,
			To:        res.Session.State,
			Invalid:   invalid,
			Changed:   domain.DiffRecords(s.Record, res.Session.Record),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process message from %s: %w", in.ConversantID, err)
	}
	return outbound, nil
}

func (b *Bot) render(ctx context.Context, s *domain.Session) (*domain.GeneratedReport, error) {
	start := b.now()
	rep, err := b.renderer.Render(ctx, s.Record, s.Contact)

	e := &domain.ReportEvent{
		EventBase: b.event(domain.EventReport, s.ConversantID),
		Duration:  b.now().Sub(start),
		Err:       err,
	}
	if rep != nil {
		e.ReportID = rep.ReportID
	}
	if b.hooks.OnReport != nil {
		b.hooks.OnReport(ctx, e)
	}
	if err != nil && !errors.Is(err, domain.ErrRenderFailure) {
		err = fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}
	return rep, err
}

// materialize turns state machine actions into outbound messages.
func (b *Bot) materialize(conversantID string, actions []domain.Action, rep *domain.GeneratedReport) []domain.OutboundMessage {
	msgs := make([]domain.OutboundMessage, 0, len(actions))
	for _, a := range actions {
		switch a.Type {
		case domain.ActionSendText:
			msgs = append(msgs, domain.OutboundMessage{ConversantID: conversantID, Text: a.Text})
		case domain.ActionSendReport:
			if rep == nil {
				continue
			}
			msgs = append(msgs, domain.OutboundMessage{
				ConversantID: conversantID,
				Attachment:   &domain.Attachment{FileName: rep.FileName, Data: rep.Data},
			})
		}
	}
	return msgs
}

// deliver sends msgs in order. Every message is attempted even if an earlier
// one failed.
func (b *Bot) deliver(ctx context.Context, out ports.Sender, conversantID string, msgs []domain.OutboundMessage) error {
	var errs []error
	for _, msg := range msgs {
		if err := b.send(ctx, out, msg); err != nil {
			b.logger.Warn("Failed to deliver message",
				"conversant_id", conversantID,
				"attachment", msg.Attachment != nil,
				"err", err,
			)
			if b.hooks.OnSendFailure != nil {
				b.hooks.OnSendFailure(ctx, &domain.SendFailureEvent{
					EventBase:  b.event(domain.EventSendFailure, conversantID),
					Attachment: msg.Attachment != nil,
					Err:        err,
				})
			}
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrSendFailure, errors.Join(errs...))
	}
	return nil
}

func (b *Bot) send(ctx context.Context, out ports.Sender, msg domain.OutboundMessage) error {
	if b.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.sendTimeout)
		defer cancel()
	}
	return out.Send(ctx, msg)
}

func (b *Bot) fireTransition(ctx context.Context, e *domain.TransitionEvent) {
	if b.hooks.OnTransition != nil {
		b.hooks.OnTransition(ctx, e)
	}
}

func (b *Bot) event(t domain.EventType, conversantID string) domain.EventBase {
	return domain.EventBase{
		Timestamp:    b.now(),
		Type:         t,
		ConversantID: conversantID,
	}
}
