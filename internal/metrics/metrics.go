// Package metrics holds the Prometheus collectors exposed by the daemon.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nikki_runs_total",
			Help: "Total runs by outcome",
		},
		[]string{"status"}, // published, no_logs, dry_run, failed
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nikki_run_duration_seconds",
			Help:    "Run duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	LastRunMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nikki_last_run_messages",
			Help: "Messages inside the window on the last run",
		},
	)

	LastPublished = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nikki_last_published_timestamp_seconds",
			Help: "Unix time of the last published document",
		},
	)
)

// ObserveRun records a finished run.
func ObserveRun(status string, messages int, d time.Duration, finished time.Time) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(d.Seconds())
	LastRunMessages.Set(float64(messages))
	if status == "published" {
		LastPublished.Set(float64(finished.Unix()))
	}
}
