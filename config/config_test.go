package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/tabflow/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// noFiles hides any config or env file lying around the test directory.
type noFiles struct{}

func (noFiles) Exists(string) bool { return false }
func (noFiles) LoadEnv(string) error { return nil }

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{}
		cfg.ApplyDefaults()
		if cfg.Name != "tabflow" {
			t.Errorf("expected default name, got %q", cfg.Name)
		}
		if cfg.Environment != "development" || !cfg.Debug {
			t.Errorf("expected development with debug, got %q debug=%v", cfg.Environment, cfg.Debug)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults, got %+v", cfg.Logging)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithFileSystem(noFiles{}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scheduler.MaxWorkers != runtime.NumCPU() {
		t.Errorf("expected max workers %d, got %d", runtime.NumCPU(), cfg.Scheduler.MaxWorkers)
	}
	if cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Errorf("unexpected server defaults %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Observability.Enabled {
		t.Error("observability should be disabled by default")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tabflow.yml", `
name: tabflow-test
environment: staging
logging:
  level: debug
  format: json
scheduler:
  max_workers: 3
server:
  port: 9090
  read_timeout: 5s
observability:
  enabled: true
  endpoint: collector:4318
  sample_rate: 0.5
`)

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "tabflow-test" || cfg.Environment != "staging" {
		t.Errorf("unexpected service section %+v", cfg.ServiceConfig)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging section %+v", cfg.Logging)
	}
	if cfg.Scheduler.MaxWorkers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Scheduler.MaxWorkers)
	}
	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Server.ReadTimeout)
	}
	if !cfg.Observability.Enabled || cfg.Observability.SampleRate != 0.5 {
		t.Errorf("unexpected observability section %+v", cfg.Observability)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tabflow.yml", "scheduler:\n  max_workers: 3\n")
	t.Setenv("TABFLOW_SCHEDULER_MAX_WORKERS", "7")
	t.Setenv("TABFLOW_SERVER_PORT", "7070")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scheduler.MaxWorkers != 7 {
		t.Errorf("expected env override 7, got %d", cfg.Scheduler.MaxWorkers)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env override 7070, got %d", cfg.Server.Port)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "TABFLOW_SERVER_HOST=127.0.0.1\n")
	t.Setenv("TABFLOW_SERVER_HOST", "")
	os.Unsetenv("TABFLOW_SERVER_HOST")

	cfg, err := Load(WithEnvFile(envPath), WithConfigFile(filepath.Join(dir, "missing.yml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host from .env, got %q", cfg.Server.Host)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"port out of range", "server:\n  port: 70000\n", "server.port"},
		{"bad mode", "server:\n  mode: loud\n", "server.mode"},
		{"endpoint required", "observability:\n  enabled: true\n", "observability.endpoint"},
		{"sample rate", "observability:\n  sample_rate: 2\n", "observability.sample_rate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "tabflow.yml", tc.yaml)
			_, err := Load(WithConfigFile(path))
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("expected %q in %q", tc.field, err.Error())
			}
		})
	}
}

func TestLoad_BadEnvironment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tabflow.yml", "environment: qa\n")
	if _, err := Load(WithConfigFile(path)); err == nil {
		t.Fatal("expected environment validation error")
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tabflow.yml", "scheduler: [unclosed\n")
	var cfg AppConfig
	if err := LoadConfig("tabflow", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected read error for malformed YAML")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	want := filepath.Join("config", "tabflow.yml")
	fs := &mockFS{files: map[string]bool{want: true, ".env": true}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("tabflow", LoaderConfig{})
	if files.ConfigFile != want {
		t.Errorf("expected config file %q, got %q", want, files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	files := (&Resolver{FileSystem: &mockFS{}}).ResolveFiles("tabflow", LoaderConfig{ConfigFile: "a.yml", EnvFile: "b.env"})
	if files.ConfigFile != "a.yml" || files.EnvFile != "b.env" {
		t.Errorf("explicit paths should win, got %+v", files)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/config.yml")(&lc)
	WithEnvFile("/path/.env")(&lc)
	WithEnvPrefix("APP")(&lc)
	WithDefaults(map[string]any{"a": 1})(&lc)
	WithDefaults(map[string]any{"b": 2})(&lc)

	if lc.ConfigFile != "/path/config.yml" || lc.EnvFile != "/path/.env" || lc.EnvPrefix != "APP" {
		t.Errorf("unexpected loader config %+v", lc)
	}
	if len(lc.Defaults) != 2 {
		t.Errorf("expected merged defaults, got %v", lc.Defaults)
	}
}
