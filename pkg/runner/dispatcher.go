package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/ouvidoria/internal/logging"
	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/ports"
)

// Handler processes one inbound message. *Bot is the production Handler.
type Handler interface {
	Handle(ctx context.Context, in domain.InboundMessage, out ports.Sender) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, in domain.InboundMessage, out ports.Sender) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, in domain.InboundMessage, out ports.Sender) error {
	return f(ctx, in, out)
}

// queue holds the messages waiting for one conversant's worker.
type queue struct {
	pending []domain.InboundMessage
}

// Dispatcher fans inbound messages out to one worker per active conversant.
// Messages from the same conversant are handled one at a time, in arrival
// order; different conversants proceed concurrently. A worker exits as soon
// as its queue drains.
type Dispatcher struct {
	handler Handler
	logger  *slog.Logger

	mu     sync.Mutex
	queues map[string]*queue
	wg     sync.WaitGroup
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger configures the structured logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher delivering to handler.
func NewDispatcher(handler Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handler: handler,
		logger:  logging.NewNop(),
		queues:  make(map[string]*queue),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch enqueues in for its conversant, starting a worker if none is running.
func (d *Dispatcher) Dispatch(ctx context.Context, in domain.InboundMessage, out ports.Sender) {
	d.mu.Lock()
	if q, ok := d.queues[in.ConversantID]; ok {
		q.pending = append(q.pending, in)
		d.mu.Unlock()
		return
	}

	q := &queue{pending: []domain.InboundMessage{in}}
	d.queues[in.ConversantID] = q
	d.wg.Add(1)
	d.mu.Unlock()

	go d.work(ctx, in.ConversantID, q, out)
}

func (d *Dispatcher) work(ctx context.Context, conversantID string, q *queue, out ports.Sender) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(q.pending) == 0 {
			delete(d.queues, conversantID)
			d.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		if err := d.handler.Handle(ctx, msg, out); err != nil {
			d.logger.Error("Failed to handle message",
				"conversant_id", conversantID,
				"platform", msg.Platform,
				"err", err,
			)
		}
	}
}

// Active reports how many conversants currently have a worker.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Wait blocks until every worker has drained its queue.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Run connects the transport and dispatches its inbound messages until ctx
// is canceled or the transport closes its channel. Replies go back through
// the same transport. Run waits for in-flight messages before returning.
func (d *Dispatcher) Run(ctx context.Context, transport ports.Transport) error {
	if err := transport.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect transport: %w", err)
	}

	inbound, err := transport.Listen(ctx)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	d.logger.Info("Dispatcher started")

	defer func() {
		d.Wait()
		d.logger.Info("Dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			d.Dispatch(ctx, msg, transport)
		}
	}
}
