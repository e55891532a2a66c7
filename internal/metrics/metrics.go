// Package metrics exposes counters and histograms for the switch-facing
// lookup endpoint, scraped by Prometheus at the unauthenticated /metrics
// route outside /api/v1.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder tracks resolution counts and latency, broken down by section
// (directory, dialplan, configuration) and outcome.
type Recorder struct {
	resolutionsTotal   *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
// Pass prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to use the global one.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		resolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xmlcurld_resolutions_total",
			Help: "Total number of mod_xml_curl lookups handled, by section and outcome.",
		}, []string{"section", "outcome"}),
		resolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xmlcurld_resolution_duration_seconds",
			Help:    "Lookup resolution latency in seconds, by section.",
			Buckets: prometheus.DefBuckets,
		}, []string{"section"}),
	}
	reg.MustRegister(r.resolutionsTotal, r.resolutionDuration)
	return r
}

// Outcome labels for ObserveResolution.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveResolution records one lookup's latency and outcome.
func (r *Recorder) ObserveResolution(section, outcome string, duration time.Duration) {
	r.resolutionsTotal.WithLabelValues(section, outcome).Inc()
	r.resolutionDuration.WithLabelValues(section).Observe(duration.Seconds())
}

// Handler returns the HTTP handler that serves the registered metrics in
// Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
