// Package metrics holds the Prometheus collectors exported by the crawler
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Results of a crawl pass
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Outcomes of reconciling a single event
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

var (
	// CrawlPassesTotal counts finished crawl passes by provider and result
	CrawlPassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlink_crawl_passes_total",
			Help: "Total number of crawl passes by provider and result",
		},
		[]string{"provider", "result"},
	)

	CrawlPassDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventlink_crawl_pass_duration_seconds",
			Help:    "Duration of a crawl pass in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"provider"},
	)

	EventsReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlink_events_reconciled_total",
			Help: "Total number of reconciled events by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderPagesFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventlink_provider_pages_fetched_total",
			Help: "Total number of response pages fetched from a provider",
		},
		[]string{"provider"},
	)

	// EventsExpiredTotal counts events set inactive by the expiration sweep
	EventsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventlink_events_expired_total",
			Help: "Total number of events set inactive because their sale window has ended",
		},
	)
)

func init() {
	prometheus.MustRegister(CrawlPassesTotal)
	prometheus.MustRegister(CrawlPassDuration)
	prometheus.MustRegister(EventsReconciledTotal)
	prometheus.MustRegister(ProviderPagesFetchedTotal)
	prometheus.MustRegister(EventsExpiredTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time passed since the timer was started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the time passed since the timer was started in seconds
func (t *Timer) ObserveDuration(o prometheus.Observer) {
	o.Observe(t.Duration().Seconds())
}
