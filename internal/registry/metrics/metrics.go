package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registry operations.
type Metrics struct {
	// Operation outcomes by operation and result ("ok" or an error reason)
	Operations *prometheus.CounterVec

	// Operation latency including the ledger transaction
	OperationLatency *prometheus.HistogramVec

	// Registered and not revoked identities: seeded from the stored config at
	// startup, then moved by committed registrations and revocations
	ActiveIdentities prometheus.Gauge
}

// New registers the registry metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idattest_registry_operations_total",
			Help: "Registry operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idattest_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including the ledger transaction",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}, []string{"operation"}),

		ActiveIdentities: f.NewGauge(prometheus.GaugeOpts{
			Name: "idattest_registry_active_identities",
			Help: "Identities registered and not revoked",
		}),
	}
}

// ObserveOperation records one operation's outcome and latency.
func (m *Metrics) ObserveOperation(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) SetActiveIdentities(n uint64) {
	if m != nil {
		m.ActiveIdentities.Set(float64(n))
	}
}

func (m *Metrics) IncrementActiveIdentities() {
	if m != nil {
		m.ActiveIdentities.Inc()
	}
}

func (m *Metrics) DecrementActiveIdentities() {
	if m != nil {
		m.ActiveIdentities.Dec()
	}
}
