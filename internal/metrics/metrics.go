package metrics

import (
	"context"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests   metric.Int64Counter
	HTTPDuration   metric.Float64Histogram
	CacheHits      metric.Int64Counter
	CacheMisses    metric.Int64Counter
	ActiveSessions metric.Int64UpDownCounter
	DemoStarted    metric.Int64Counter
	DemoExpired    metric.Int64Counter
	WSConnections  metric.Int64UpDownCounter
	MessagesSent   metric.Int64Counter
}

func Setup(serviceName string) (*Metrics, http.Handler, error) {
	// A private registry keeps repeated setups (one per test server)
	// from colliding on the global default.
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"edu_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"edu_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CacheHits, err = meter.Int64Counter(
		"edu_cache_hits_total",
		metric.WithDescription("Total number of cache hits"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CacheMisses, err = meter.Int64Counter(
		"edu_cache_misses_total",
		metric.WithDescription("Total number of cache misses"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ActiveSessions, err = meter.Int64UpDownCounter(
		"edu_active_sessions",
		metric.WithDescription("Number of live sessions"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DemoStarted, err = meter.Int64Counter(
		"edu_demo_sessions_started_total",
		metric.WithDescription("Total number of demo sessions started"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DemoExpired, err = meter.Int64Counter(
		"edu_demo_sessions_expired_total",
		metric.WithDescription("Total number of demo sessions that hit their deadline"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.WSConnections, err = meter.Int64UpDownCounter(
		"edu_websocket_connections",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.MessagesSent, err = meter.Int64Counter(
		"edu_messages_sent_total",
		metric.WithDescription("Total number of direct messages sent"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordCacheHit(ctx context.Context, key string) {
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}

func (m *Metrics) RecordCacheMiss(ctx context.Context, key string) {
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}

func (m *Metrics) SessionOpened(ctx context.Context, demo bool) {
	m.ActiveSessions.Add(ctx, 1)
	if demo {
		m.DemoStarted.Add(ctx, 1)
	}
}

func (m *Metrics) SessionClosed(ctx context.Context, expired bool) {
	m.ActiveSessions.Add(ctx, -1)
	if expired {
		m.DemoExpired.Add(ctx, 1)
	}
}

func (m *Metrics) IncrementConnections(ctx context.Context) {
	m.WSConnections.Add(ctx, 1)
}

func (m *Metrics) DecrementConnections(ctx context.Context) {
	m.WSConnections.Add(ctx, -1)
}

func (m *Metrics) RecordMessageSent(ctx context.Context) {
	m.MessagesSent.Add(ctx, 1)
}
