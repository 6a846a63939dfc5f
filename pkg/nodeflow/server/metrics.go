package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow/observability"
)

// PrometheusMetrics bridges engine metrics to a Prometheus registry.
type PrometheusMetrics struct {
	// Recorder is passed to the engine with nodeflow.WithMetricsRecorder.
	Recorder observability.MetricsRecorder
	// Handler serves the registry in the Prometheus text format.
	Handler http.Handler
	// Provider owns the exporter; call Shutdown when done.
	Provider *sdkmetric.MeterProvider
}

// NewPrometheusMetrics registers an OpenTelemetry Prometheus exporter with
// reg. A nil reg uses a fresh registry.
func NewPrometheusMetrics(reg *prometheus.Registry) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	rec, err := observability.NewMetricsRecorderFromProvider(mp)
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		Recorder: rec,
		Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Provider: mp,
	}, nil
}
