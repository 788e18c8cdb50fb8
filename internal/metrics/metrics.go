// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperRunsTotal          *prometheus.CounterVec
	scraperRunDurationSeconds *prometheus.HistogramVec
	scraperPagesTotal         *prometheus.CounterVec
	scraperNavRetriesTotal    prometheus.Counter

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		scraperRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_runs_total",
				Help: "Total scrape runs finished, labeled by terminal status.",
			},
			[]string{"status"},
		)

		scraperRunDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_run_duration_seconds",
				Help:    "Histogram of end-to-end run durations, labeled by terminal status.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		)

		scraperPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Detail pages processed, labeled by outcome (ok|failed).",
			},
			[]string{"outcome"},
		)

		scraperNavRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_navigation_retries_total",
				Help: "Navigation attempts that were retried after a timeout.",
			},
		)
	})
}

// RunFinished records one run reaching a terminal status.
func RunFinished(status string, duration time.Duration) {
	if scraperRunsTotal == nil {
		return
	}
	scraperRunsTotal.WithLabelValues(status).Inc()
	scraperRunDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// PageScraped records one detail page outcome.
func PageScraped(outcome string) {
	if scraperPagesTotal == nil {
		return
	}
	scraperPagesTotal.WithLabelValues(outcome).Inc()
}

// NavigationRetry records one retried navigation attempt.
func NavigationRetry() {
	if scraperNavRetriesTotal == nil {
		return
	}
	scraperNavRetriesTotal.Inc()
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
