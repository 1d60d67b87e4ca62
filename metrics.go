package panelclient

import "panelclient/internal/telemetry/metrics"

// MetricsProvider is the counters/gauges/histograms sink the G2 and G3
// transports and the event bus record against (spec DOMAIN STACK:
// "metrics (Prometheus + OTel)"). Aliased from internal/telemetry/metrics
// for the same import-cycle reason documented in errors.go.
type MetricsProvider = metrics.Provider

// PrometheusMetricsOptions configures NewPrometheusMetrics.
type PrometheusMetricsOptions = metrics.PrometheusProviderOptions

// OTelMetricsOptions configures NewOTelMetrics.
type OTelMetricsOptions = metrics.OTelProviderOptions

// NewPrometheusMetrics constructs a MetricsProvider backed by a
// Prometheus registry (default: a fresh private registry). Pass the
// result to WithCreateMetrics, or call MetricsHandler on the concrete
// *metrics.PrometheusProvider it returns to mount a scrape endpoint.
func NewPrometheusMetrics(opts PrometheusMetricsOptions) *metrics.PrometheusProvider {
	return metrics.NewPrometheusProvider(opts)
}

// NewOTelMetrics constructs a MetricsProvider backed by an OpenTelemetry
// MeterProvider. Exporters/views/resource attributes are layered on by
// the caller separately; this keeps zero-config callers unblocked.
func NewOTelMetrics(opts OTelMetricsOptions) MetricsProvider {
	return metrics.NewOTelProvider(opts)
}
