package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kbukum/tabflow/validation"
)

// AppConfig is the full tabflow configuration.
//
//	name: tabflow
//	logging:
//	  level: debug
//	scheduler:
//	  max_workers: 4
//	server:
//	  port: 8080
//	observability:
//	  enabled: true
//	  endpoint: localhost:4318
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Scheduler     SchedulerConfig     `yaml:"scheduler" mapstructure:"scheduler"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// SchedulerConfig bounds the worker pool.
type SchedulerConfig struct {
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers" validate:"gte=1"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port" validate:"gte=1,lte=65535"`
	Mode         string        `yaml:"mode" mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ObservabilityConfig configures the OTLP exporters.
type ObservabilityConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// defaults registers every key with viper so environment overrides reach
// keys that are missing from the config file.
var defaults = map[string]any{
	"name":                          "tabflow",
	"environment":                   "development",
	"version":                       "",
	"debug":                         false,
	"logging.level":                 "info",
	"logging.format":                "console",
	"logging.output":                "stdout",
	"logging.no_color":              false,
	"logging.timestamp":             true,
	"logging.caller":                false,
	"scheduler.max_workers":         0,
	"server.host":                   "0.0.0.0",
	"server.port":                   8080,
	"server.mode":                   "release",
	"server.read_timeout":           "30s",
	"server.write_timeout":          "30s",
	"server.max_body_bytes":         int64(32 << 20),
	"observability.enabled":         false,
	"observability.endpoint":        "",
	"observability.insecure":        true,
	"observability.sample_rate":     1.0,
	"observability.metric_interval": "15s",
}

// ApplyDefaults fills values that cannot be static defaults.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Scheduler.MaxWorkers <= 0 {
		c.Scheduler.MaxWorkers = runtime.NumCPU()
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
}

// Validate checks the service section and the struct tags.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// Load reads the tabflow configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*AppConfig, error) {
	var cfg AppConfig
	opts = append([]LoaderOption{WithDefaults(defaults)}, opts...)
	if err := LoadConfig("tabflow", &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
