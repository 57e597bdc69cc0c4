package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition  EventType = "transition"
	EventReport      EventType = "report"
	EventSendFailure EventType = "send_failure"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         EventType `json:"type"`
	ConversantID string    `json:"conversant_id"`
}

// TransitionEvent describes one processed inbound message.
type TransitionEvent struct {
	EventBase
	From    State   `json:"from"`
	To      State   `json:"to"`
	Invalid bool    `json:"invalid,omitempty"` // bounded-choice retry
	Changed []Field `json:"changed,omitempty"`
	Created bool    `json:"created,omitempty"` // session was created by this message
}

// ReportEvent describes a render attempt on confirmation.
type ReportEvent struct {
	EventBase
	ReportID string        `json:"report_id,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// SendFailureEvent describes an outbound message the transport could not deliver.
type SendFailureEvent struct {
	EventBase
	Attachment bool  `json:"attachment"`
	Err        error `json:"-"`
}

// LifecycleHooks defines callbacks for bot observability.
type LifecycleHooks struct {
	OnTransition  func(context.Context, *TransitionEvent)
	OnReport      func(context.Context, *ReportEvent)
	OnSendFailure func(context.Context, *SendFailureEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition:  chain(h.OnTransition, other.OnTransition),
		OnReport:      chain(h.OnReport, other.OnReport),
		OnSendFailure: chain(h.OnSendFailure, other.OnSendFailure),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
