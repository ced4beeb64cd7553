package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tapmonitor"

type Metrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	records         prometheus.Gauge
	orphans         prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// NewMetrics registers the refresh collectors on reg (nil = not exported).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of dashboard refreshes by result.",
		}, []string{"result"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of dashboard refreshes (feed + overrides + merge).",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
		}),
		records: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of TA records in the current snapshot.",
		}),
		orphans: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphaned_overrides",
			Help:      "Overrides whose target index has no parsed target in the current snapshot.",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
	}
}
