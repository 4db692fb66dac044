package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/tabflow/config"
	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/observability"
	"github.com/kbukum/tabflow/scheduler"
	"github.com/kbukum/tabflow/workbench"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg       *config.AppConfig
	log       *logger.Logger
	providers *observability.Providers
}

func (a *app) setup(ctx context.Context, flags globalFlags) error {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	logger.Init(&cfg.Logging)
	logger.RegisterDefaults("scheduler", "journal", "api")
	a.log = logger.GetGlobalLogger()

	a.providers, err = observability.Init(ctx, observability.Config{
		Enabled:        cfg.Observability.Enabled,
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Observability.Endpoint,
		Insecure:       cfg.Observability.Insecure,
		SampleRate:     cfg.Observability.SampleRate,
		MetricInterval: cfg.Observability.MetricInterval,
	})
	if err != nil {
		return fmt.Errorf("starting observability: %w", err)
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.providers == nil {
		return nil
	}
	return a.providers.Shutdown(ctx)
}

// schedulerOptions wires the configured pool size and the runner chain:
// logging outermost, then the journal, metrics and tracing.
func (a *app) schedulerOptions(listeners ...scheduler.Listener) []scheduler.Option {
	metrics := a.providers.Metrics
	runner := scheduler.WithLogging(
		scheduler.Journal(
			scheduler.WithMetrics(scheduler.WithTracing(scheduler.Execute), metrics),
			logger.Get("journal"),
		),
		logger.Get("scheduler"),
	)
	return []scheduler.Option{
		scheduler.WithMaxWorkers(a.cfg.Scheduler.MaxWorkers),
		scheduler.WithRunner(runner),
		scheduler.WithListener(append(scheduler.Listeners{scheduler.MetricsListener(metrics)}, listeners...)),
		scheduler.WithLogger(logger.Get("scheduler")),
	}
}

// loadDocument reads a pipeline file, or looks name up in dirs when it is
// not a file.
func loadDocument(name string, dirs []string) (*dag.Document, error) {
	if _, err := os.Stat(name); err == nil || len(dirs) == 0 {
		return dag.LoadFile(name)
	}
	return dag.NewFilePipelineLoader(dirs...).Load(name)
}

// loadFrames fills wb from a {"name": frame} JSON file. An empty path
// leaves wb empty.
func loadFrames(wb *workbench.Workbench, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NotFound("frames file", path).WithCause(err)
	}
	set, err := frame.DecodeSet(data)
	if err != nil {
		return errors.InvalidInput("data", err.Error()).WithCause(err)
	}
	wb.Load(set)
	return nil
}

// waitForSignal blocks until SIGINT, SIGTERM or ctx is done.
func waitForSignal(ctx context.Context, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.Fields("signal", sig.String()))
	case <-ctx.Done():
	}
}
