package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the runner's Prometheus instruments.
type Metrics struct {
	cycles        *prometheus.CounterVec
	skipped       prometheus.Counter
	duration      prometheus.Histogram
	poolsFetched  prometheus.Gauge
	poolsNotified prometheus.Counter
	lastSuccess   prometheus.Gauge
}

// NewMetrics registers the runner metrics with reg. A nil reg keeps them
// on a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poolwatch",
			Name:      "cycles_total",
			Help:      "Poll cycles by outcome.",
		}, []string{"result"}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "poolwatch",
			Name:      "cycles_skipped_total",
			Help:      "Ticks dropped because a cycle was still running.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "poolwatch",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of completed poll cycles.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		poolsFetched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "poolwatch",
			Name:      "pools_fetched",
			Help:      "Pools returned by the last successful fetch.",
		}),
		poolsNotified: f.NewCounter(prometheus.CounterOpts{
			Namespace: "poolwatch",
			Name:      "pools_notified_total",
			Help:      "Pools included in delivered notifications.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "poolwatch",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that finished without error.",
		}),
	}
}
