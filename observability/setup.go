package observability

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

// Config selects the exporters for a process.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	SampleRate     float64
	MetricInterval time.Duration
}

// Providers bundles what Init installed.
type Providers struct {
	Metrics  *Metrics
	shutdown []func(context.Context) error
}

// Shutdown flushes and stops every installed provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Init installs the tracer and meter providers when cfg.Enabled is set.
// Otherwise the returned Metrics record into a no-op meter.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		metrics, err := NewMetrics(noop.NewMeterProvider().Meter(instrumentationName))
		if err != nil {
			return nil, err
		}
		return &Providers{Metrics: metrics}, nil
	}

	p := &Providers{}
	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	p.shutdown = append(p.shutdown, tp.Shutdown)

	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		Interval:       cfg.MetricInterval,
	})
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.shutdown = append(p.shutdown, mp.Shutdown)

	if p.Metrics, err = NewMetrics(Meter()); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	return p, nil
}
