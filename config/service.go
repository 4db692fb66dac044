package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/version"
)

var validEnvironments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every tabflow process needs. AppConfig
// embeds it.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills the environment and logging defaults. An unset
// version is taken from the build.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "tabflow"
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the service fields and the logging section.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if !slices.Contains(validEnvironments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvironments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
