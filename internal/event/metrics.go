package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers both sides of the command path. All methods are nil-safe.
type Metrics struct {
	Dispatched      *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	Consumed        *prometheus.CounterVec
	DeadLettered    *prometheus.CounterVec
}

// NewMetrics registers the event metrics with reg (the default registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Dispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "event",
			Name:      "dispatched_total",
			Help:      "Commands accepted by the transport",
		}, []string{"topic", "type"}),
		PublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "event",
			Name:      "publish_failures_total",
			Help:      "Commands the transport rejected or failed to deliver after accepting them",
		}, []string{"topic"}),
		Consumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "event",
			Name:      "consumed_total",
			Help:      "Commands processed by consumers, by outcome",
		}, []string{"topic", "type", "outcome"}),
		DeadLettered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mosaic",
			Subsystem: "event",
			Name:      "dead_lettered_total",
			Help:      "Commands routed to a dead-letter topic",
		}, []string{"topic"}),
	}
}

func (m *Metrics) IncDispatched(topic, typ string) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(topic, typ).Inc()
}

func (m *Metrics) IncPublishFailure(topic string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(topic).Inc()
}

func (m *Metrics) IncConsumed(topic, typ, outcome string) {
	if m == nil {
		return
	}
	m.Consumed.WithLabelValues(topic, typ, outcome).Inc()
}

func (m *Metrics) IncDeadLettered(topic string) {
	if m == nil {
		return
	}
	m.DeadLettered.WithLabelValues(topic).Inc()
}
