package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter manages Prometheus metrics export
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter creates an exporter for source, with the Go runtime and
// process collectors registered alongside.
func NewExporter(source Source) *Exporter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		NewCollector(source),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Exporter{registry: registry}
}

// Registry returns the underlying registry, to register more collectors.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP starts the metrics HTTP server
func (e *Exporter) ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	return http.ListenAndServe(addr, mux)
}
