package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mosaic/pkg/platform/circuit"
)

// Metrics provides observability for the composite read path.
type Metrics struct {
	// Latency of each scatter-gather branch: "product", "recommendations", "reviews"
	BranchLatency *prometheus.HistogramVec

	// Breaker position per resource: 0 closed, 1 open, 2 half-open
	BreakerState *prometheus.GaugeVec

	// Breaker transitions per resource
	BreakerTransitions *prometheus.CounterVec

	// Resilience attempts by resource and outcome
	Attempts *prometheus.CounterVec

	// Unavailable product lookups resolved by the fallback
	Fallbacks *prometheus.CounterVec
}

// New creates the composite metrics registered with reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		BranchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mosaic_composite_branch_duration_seconds",
			Help:    "Duration of each backing query made for an aggregate",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"branch"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mosaic_circuit_breaker_state",
			Help: "Circuit breaker state by resource (0 closed, 1 open, 2 half-open)",
		}, []string{"resource"}),

		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mosaic_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions by resource",
		}, []string{"resource", "from", "to"}),

		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mosaic_resilience_attempts_total",
			Help: "Attempts made under a resilience policy by outcome",
		}, []string{"resource", "outcome"}), // outcome: success, failure, terminal, rejected, timeout

		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mosaic_composite_fallbacks_total",
			Help: "Unavailable product lookups by how they were resolved",
		}, []string{"result"}), // result: "fallback", "not_found"
	}
}

// ObserveBranch records how long one branch of the read path took.
func (m *Metrics) ObserveBranch(branch string, d time.Duration) {
	if m != nil {
		m.BranchLatency.WithLabelValues(branch).Observe(d.Seconds())
	}
}

// ObserveAttempt implements resilience.Observer.
func (m *Metrics) ObserveAttempt(resource, outcome string) {
	if m != nil {
		m.Attempts.WithLabelValues(resource, outcome).Inc()
	}
}

// IncFallback records how an unavailable product lookup was resolved.
func (m *Metrics) IncFallback(result string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(result).Inc()
	}
}

// BreakerListener returns a circuit.Listener that keeps the breaker gauges current.
func (m *Metrics) BreakerListener() circuit.Listener {
	return func(name string, from, to circuit.State) {
		if m == nil {
			return
		}
		m.BreakerState.WithLabelValues(name).Set(float64(to))
		m.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	}
}
