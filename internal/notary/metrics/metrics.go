package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks notarization outcomes.
type Metrics struct {
	Notarizations   *prometheus.CounterVec
	NotarizeLatency prometheus.Histogram
	ProofBytes      prometheus.Histogram
	RateLimited     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Notarizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idattest_notary_notarizations_total",
			Help: "Notarize requests by outcome",
		}, []string{"outcome"}),
		NotarizeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idattest_notary_notarize_duration_seconds",
			Help:    "Time to prove and sign one transcript",
			Buckets: prometheus.DefBuckets,
		}),
		ProofBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idattest_notary_proof_bytes",
			Help:    "Size of produced proofs",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "idattest_notary_rate_limited_total",
			Help: "Notarize requests rejected by the per-client rate limit",
		}),
	}
}

func (m *Metrics) ObserveNotarize(outcome string, proofLen int, d time.Duration) {
	if m == nil {
		return
	}
	m.Notarizations.WithLabelValues(outcome).Inc()
	m.NotarizeLatency.Observe(d.Seconds())
	if proofLen > 0 {
		m.ProofBytes.Observe(float64(proofLen))
	}
}

func (m *Metrics) IncrementRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
