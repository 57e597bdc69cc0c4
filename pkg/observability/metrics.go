package observability

import (
	"context"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "ouvidoria"

// Metrics records bot activity in Prometheus.
type Metrics struct {
	messagesTotal   *prometheus.CounterVec
	invalidTotal    *prometheus.CounterVec
	sessionsStarted prometheus.Counter
	reportsTotal    *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	sendFailures    *prometheus.CounterVec
}

// NewMetrics registers the bot metrics with reg.
// Passing nil uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "messages_total",
				Help:      "Inbound messages processed, by the state they arrived in",
			},
			[]string{"state"},
		),
		invalidTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "invalid_choices_total",
				Help:      "Replies rejected at a bounded-choice prompt",
			},
			[]string{"state"},
		),
		sessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "sessions_started_total",
				Help:      "Conversations started",
			},
		),
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "reports_total",
				Help:      "Report render attempts by result",
			},
			[]string{"result"},
		),
		renderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "render_duration_seconds",
				Help:      "Time spent rendering reports",
				Buckets:   prometheus.DefBuckets,
			},
		),
		sendFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "send_failures_total",
				Help:      "Outbound messages the transport failed to deliver",
			},
			[]string{"kind"},
		),
	}
}

// Hooks returns lifecycle hooks feeding these metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			if e.Created {
				m.sessionsStarted.Inc()
				return
			}
			m.messagesTotal.WithLabelValues(string(e.From)).Inc()
			if e.Invalid {
				m.invalidTotal.WithLabelValues(string(e.From)).Inc()
			}
		},
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			m.renderDuration.Observe(e.Duration.Seconds())
			result := "success"
			if e.Err != nil {
				result = "failure"
			}
			m.reportsTotal.WithLabelValues(result).Inc()
		},
		OnSendFailure: func(_ context.Context, e *domain.SendFailureEvent) {
			kind := "text"
			if e.Attachment {
				kind = "attachment"
			}
			m.sendFailures.WithLabelValues(kind).Inc()
		},
	}
}
