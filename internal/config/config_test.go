package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"filmatlas/internal/config"
)

func clearTokenEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TMDB_TOKEN", "TMDB_API_KEY"} {
		if value, ok := os.LookupEnv(key); ok {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("unset %s: %v", key, err)
			}
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		}
	}
}

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("TMDB_TOKEN", "test-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "filmatlas")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.TMDB.APIToken != "test-token" {
		t.Fatalf("expected TMDB token from env, got %q", cfg.TMDB.APIToken)
	}
	if cfg.Pipeline.BatchSize != 5 {
		t.Fatalf("expected default batch size 5, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.BatchDelay() != 250*time.Millisecond {
		t.Fatalf("expected default batch delay 250ms, got %v", cfg.BatchDelay())
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "filmatlas.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if err := cfg.RequireTMDB(); err != nil {
		t.Fatalf("RequireTMDB returned error: %v", err)
	}
}

func TestLoadFallsBackToLegacyAPIKeyEnv(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("TMDB_API_KEY", "legacy")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TMDB.APIToken != "legacy" {
		t.Fatalf("expected legacy key fallback, got %q", cfg.TMDB.APIToken)
	}
}

func TestRequireTMDBWithoutToken(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	err = cfg.RequireTMDB()
	if err == nil {
		t.Fatal("expected error when token missing")
	}
	if !strings.Contains(err.Error(), "tmdb.api_token") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadCustomFile(t *testing.T) {
	clearTokenEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.TMDB.APIToken = "file-token"
	cfg.TMDB.BaseURL = "https://tmdb.example.com/3/"
	cfg.Pipeline.BatchSize = 8
	cfg.Pipeline.BatchDelayMS = 100
	cfg.Logging.Format = "JSON"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file to be used, got resolved=%q exists=%v", resolved, exists)
	}
	if loaded.TMDB.APIToken != "file-token" {
		t.Fatalf("unexpected token %q", loaded.TMDB.APIToken)
	}
	if loaded.TMDB.BaseURL != "https://tmdb.example.com/3" {
		t.Fatalf("expected trailing slash trimmed, got %q", loaded.TMDB.BaseURL)
	}
	if loaded.Pipeline.BatchSize != 8 || loaded.BatchDelay() != 100*time.Millisecond {
		t.Fatalf("unexpected pipeline config %+v", loaded.Pipeline)
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", loaded.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"batch size", func(c *config.Config) { c.Pipeline.BatchSize = -1 }, "pipeline.batch_size"},
		{"batch delay", func(c *config.Config) { c.Pipeline.BatchDelayMS = -5 }, "pipeline.batch_delay_ms"},
		{"base url", func(c *config.Config) { c.TMDB.BaseURL = "not a url" }, "tmdb.base_url"},
		{"rate", func(c *config.Config) { c.TMDB.RequestsPerSecond = -1 }, "tmdb.requests_per_second"},
		{"level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearTokenEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Pipeline.BatchSize != 5 {
		t.Fatalf("unexpected sample batch size %d", cfg.Pipeline.BatchSize)
	}
}
