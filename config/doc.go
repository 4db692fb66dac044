// Package config loads tabflow configuration with viper.
//
// Values come from registered defaults, an optional YAML config file
// (tabflow.yml, config.yml, ./config/...), an optional .env file loaded with
// godotenv and the process environment, in increasing precedence.
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("tabflow.yml"))
//
// Environment variables use the TABFLOW_ prefix with underscore-separated
// paths (TABFLOW_SCHEDULER_MAX_WORKERS, TABFLOW_SERVER_PORT).
package config
