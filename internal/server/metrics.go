package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "htmlbench"

type metrics struct {
	registry    *prometheus.Registry
	filesServed *prometheus.CounterVec
	bytesServed *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		filesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_served_total",
			Help:      "HTML files served, by size keyword.",
		}, []string{"size"}),
		bytesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_served_total",
			Help:      "Bytes of HTML file content served, by size keyword.",
		}, []string{"size"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests handled, by route template and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(m.filesServed, m.bytesServed, m.requests)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
