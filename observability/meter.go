package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/tabflow/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns development defaults.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The caller shuts the provider down on exit.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns the tabflow meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the pipeline instruments.
type Metrics struct {
	nodeTotal       metric.Int64Counter
	nodeDuration    metric.Float64Histogram
	nodeActive      metric.Int64UpDownCounter
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorTotal      metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.nodeTotal, err = meter.Int64Counter("tabflow.node.executions",
		metric.WithDescription("Node executions by operation and outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating tabflow.node.executions counter: %w", err)
	}
	if m.nodeDuration, err = meter.Float64Histogram("tabflow.node.duration",
		metric.WithDescription("Node execution time"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating tabflow.node.duration histogram: %w", err)
	}
	if m.nodeActive, err = meter.Int64UpDownCounter("tabflow.node.active",
		metric.WithDescription("Nodes currently executing"),
	); err != nil {
		return nil, fmt.Errorf("creating tabflow.node.active counter: %w", err)
	}
	if m.runTotal, err = meter.Int64Counter("tabflow.run.total",
		metric.WithDescription("Finished runs by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating tabflow.run.total counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("tabflow.run.duration",
		metric.WithDescription("Run wall time"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating tabflow.run.duration histogram: %w", err)
	}
	if m.requestTotal, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("HTTP requests by route and status"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("tabflow.errors",
		metric.WithDescription("Errors by kind and component"),
	); err != nil {
		return nil, fmt.Errorf("creating tabflow.errors counter: %w", err)
	}

	return &m, nil
}

// NodeStarted increments the active node gauge.
func (m *Metrics) NodeStarted(ctx context.Context, operation string) {
	m.nodeActive.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// NodeFinished decrements the active node gauge and records the execution.
func (m *Metrics) NodeFinished(ctx context.Context, operation, status string, duration time.Duration) {
	op := attribute.String("operation", operation)
	m.nodeActive.Add(ctx, -1, metric.WithAttributes(op))
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(op, attribute.String("status", status)))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(op))
}

// RecordRun records a finished run. outcome is "completed" or "aborted".
func (m *Metrics) RecordRun(ctx context.Context, outcome string, duration time.Duration) {
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.runDuration.Record(ctx, duration.Seconds())
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("route", route),
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Int("status", status))...))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordError counts an error by kind (usually an error code) and component.
func (m *Metrics) RecordError(ctx context.Context, kind, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("component", component),
	))
}
