package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the prometheus collectors of the service on a private
// registry
type Collector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewCollector creates and registers every collector
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	refreshes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuops_dashboard_refreshes_total",
			Help: "Dashboard refreshes by outcome",
		},
		[]string{"result"},
	)

	completeness := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "menuops_workflow_completeness_percent",
			Help: "Workflow completeness of the current project",
		},
		[]string{"project"},
	)

	warnings := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "menuops_outstanding_warnings",
			Help: "Outstanding warnings by source",
		},
		[]string{"source"},
	)

	generation := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menuops_report_generation_seconds",
			Help:    "Time taken to derive prep plans and FOH briefings",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"report"},
	)

	metrics := map[string]prometheus.Collector{
		"refreshes":    refreshes,
		"completeness": completeness,
		"warnings":     warnings,
		"generation":   generation,
	}
	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &Collector{
		registry: registry,
		metrics:  metrics,
	}
}

// Registry exposes the private registry
func (mc *Collector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the prometheus exposition format
func (mc *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// RecordRefresh counts a dashboard refresh
func (mc *Collector) RecordRefresh(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	if counter, found := mc.metrics["refreshes"].(*prometheus.CounterVec); found {
		counter.WithLabelValues(result).Inc()
	}
}

// RecordCompleteness sets the completeness gauge of a project
func (mc *Collector) RecordCompleteness(projectID string, percent float64) {
	if gauge, ok := mc.metrics["completeness"].(*prometheus.GaugeVec); ok {
		gauge.WithLabelValues(projectID).Set(percent)
	}
}

// RecordWarnings replaces the warning gauges with the given counts
func (mc *Collector) RecordWarnings(bySource map[string]int) {
	gauge, ok := mc.metrics["warnings"].(*prometheus.GaugeVec)
	if !ok {
		return
	}
	gauge.Reset()
	for source, n := range bySource {
		gauge.WithLabelValues(source).Set(float64(n))
	}
}

// ObserveGeneration records how long a report took to derive
func (mc *Collector) ObserveGeneration(report string, d time.Duration) {
	if histogram, ok := mc.metrics["generation"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(report).Observe(d.Seconds())
	}
}
