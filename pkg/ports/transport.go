package ports

import (
	"context"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

// Sender delivers outbound messages to a conversant.
type Sender interface {
	Send(ctx context.Context, msg domain.OutboundMessage) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg domain.OutboundMessage) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg domain.OutboundMessage) error {
	return f(ctx, msg)
}

// Transport is a chat platform connection. Each adapter handles connection
// management and message delivery for a single platform.
type Transport interface {
	Sender

	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages, in arrival order.
	// The channel is closed when the context is cancelled or the transport
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan domain.InboundMessage, error)

	// Close gracefully shuts down the connection.
	Close() error
}

// ReportRenderer turns a confirmed record into a document.
type ReportRenderer interface {
	Render(ctx context.Context, record domain.ComplaintRecord, contact string) (*domain.GeneratedReport, error)
}
