// Package metrics exposes Prometheus instrumentation for the processing
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests by endpoint and outcome. Outcome is
	// "ok" or the stable error classification code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortsfit_requests_total",
		Help: "Total API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// ConversionsTotal counts completed conversions by mode.
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortsfit_conversions_total",
		Help: "Total completed conversions by mode",
	}, []string{"mode"})

	// ProbeDuration tracks ffprobe wall-clock time.
	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shortsfit_probe_duration_seconds",
		Help:    "Time spent probing staged inputs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// ConvertDuration tracks ffmpeg wall-clock time.
	ConvertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shortsfit_convert_duration_seconds",
		Help:    "Time spent converting staged inputs",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})
)

// ObserveProbe records the duration of one probe call.
func ObserveProbe(d time.Duration) {
	ProbeDuration.Observe(d.Seconds())
}

// ObserveConvert records the duration of one conversion.
func ObserveConvert(d time.Duration) {
	ConvertDuration.Observe(d.Seconds())
}

// RecordRequest counts one finished request.
func RecordRequest(endpoint, outcome string) {
	RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordConversion counts one completed conversion.
func RecordConversion(mode string) {
	ConversionsTotal.WithLabelValues(mode).Inc()
}
