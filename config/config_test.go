package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/erisonliang/dotdotnet/errors"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Queue         struct {
		Capacity  int           `mapstructure:"capacity"`
		BatchSize int           `mapstructure:"batch_size"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"queue"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name 'svc', got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
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
		wantErr bool
		errMsg  string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, true, "environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: ppcrun
environment: staging
queue:
  capacity: 16
  batch_size: 4
  timeout: 250ms
`)

	var cfg testConfig
	if err := LoadConfig("ppcrun-yaml", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "ppcrun" {
		t.Errorf("expected name 'ppcrun', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Queue.Capacity != 16 || cfg.Queue.BatchSize != 4 {
		t.Errorf("unexpected queue config %+v", cfg.Queue)
	}
	if cfg.Queue.Timeout != 250*time.Millisecond {
		t.Errorf("expected timeout 250ms, got %v", cfg.Queue.Timeout)
	}
	// ApplyDefaults ran through the promoted method.
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default logging level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: ppcrun
queue:
  capacity: 16
`)
	t.Setenv("PPCTEST_QUEUE_CAPACITY", "64")
	t.Setenv("PPCTEST_QUEUE_BATCH_SIZE", "8")
	t.Setenv("OTHER_QUEUE_CAPACITY", "1")

	var cfg testConfig
	if err := LoadConfig("ppctest", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Queue.Capacity != 64 {
		t.Errorf("expected env override 64, got %d", cfg.Queue.Capacity)
	}
	if cfg.Queue.BatchSize != 8 {
		t.Errorf("expected batch size 8, got %d", cfg.Queue.BatchSize)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "name: ppcrun\n")
	envPath := writeFile(t, dir, ".env", "PPCENV_QUEUE_CAPACITY=3\n")
	t.Cleanup(func() { os.Unsetenv("PPCENV_QUEUE_CAPACITY") })

	var cfg testConfig
	if err := LoadConfig("ppcenv", &cfg, WithConfigFile(cfgPath), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Queue.Capacity != 3 {
		t.Errorf("expected capacity from .env, got %d", cfg.Queue.Capacity)
	}
}

func TestLoadConfigValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "environment: staging\n")

	var cfg testConfig
	err := LoadConfig("ppcbad", &cfg, WithConfigFile(path))
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
	if !strings.Contains(err.Error(), "name: is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: [unterminated\n")

	var cfg testConfig
	if err := LoadConfig("ppcmal", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestLoadConfigUndecodableValue(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: svc\nqueue:\n  capacity: lots\n")

	var cfg testConfig
	err := LoadConfig("ppcdecode", &cfg, WithConfigFile(path))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/ppcrun/config.yml": true,
		".env":                    true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("ppcrun", LoaderConfig{})
	if files.ConfigFile != "./cmd/ppcrun/config.yml" {
		t.Errorf("expected config file at ./cmd/ppcrun/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected env file .env, got %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("ppcrun", LoaderConfig{ConfigFile: "/etc/ppc.yml"})
	if explicit.ConfigFile != "/etc/ppc.yml" {
		t.Errorf("expected explicit path to win, got %q", explicit.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestEnvPrefix(t *testing.T) {
	if got := EnvPrefix("ppc-run"); got != "PPC_RUN" {
		t.Errorf("expected PPC_RUN, got %q", got)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("PPC_BATCH_SIZE")
	for _, want := range []string{"ppc_batch_size", "ppc.batch.size", "ppc.batch_size"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected variant %q in %v", want, got)
		}
	}
	if single := generateEnvKeyVariants("NAME"); len(single) != 1 || single[0] != "name" {
		t.Errorf("unexpected variants for single key: %v", single)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("X")(&lc)
	if lc.FileSystem == nil || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" || lc.EnvPrefix != "X" {
		t.Errorf("options not applied: %+v", lc)
	}
}
