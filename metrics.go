/*
File: metrics.go
Description: Prometheus instrumentation. Each engine owns a private
             registry so multiple engines in one process never fight over
             collector registration.
*/

package urlguard

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type engineMetrics struct {
	registry *prometheus.Registry

	analysesTotal     *prometheus.CounterVec
	analysisErrors    prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	coalescedFlights  prometheus.Counter
	collectorFailures *prometheus.CounterVec
	collectorTimeouts *prometheus.CounterVec
	analysisSeconds   prometheus.Histogram
}

func newEngineMetrics() *engineMetrics {
	m := &engineMetrics{
		registry: prometheus.NewRegistry(),

		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "analyses_total",
			Help:      "Completed analyses by resulting risk level.",
		}, []string{"level"}),

		analysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "analysis_errors_total",
			Help:      "Analyses that failed before producing a verdict.",
		}),

		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "cache_hits_total",
			Help:      "Assessments served from the fingerprint cache.",
		}),

		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "cache_misses_total",
			Help:      "Cache lookups that required a fresh analysis.",
		}),

		coalescedFlights: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "coalesced_flights_total",
			Help:      "Analyses that piggybacked on an identical in-flight request.",
		}),

		collectorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "collector_failures_total",
			Help:      "Signal collectors that returned an error.",
		}, []string{"collector"}),

		collectorTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urlguard",
			Name:      "collector_timeouts_total",
			Help:      "Signal collectors that exceeded their deadline.",
		}, []string{"collector"}),

		analysisSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "urlguard",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of uncached analyses.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}

	m.registry.MustRegister(
		m.analysesTotal,
		m.analysisErrors,
		m.cacheHits,
		m.cacheMisses,
		m.coalescedFlights,
		m.collectorFailures,
		m.collectorTimeouts,
		m.analysisSeconds,
	)
	return m
}

// MetricsHandler exposes the engine's metrics in Prometheus text format,
// ready to mount on any mux.
func (e *Engine) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(e.metrics.registry, promhttp.HandlerOpts{})
}
