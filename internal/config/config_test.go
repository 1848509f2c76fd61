package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calldeck.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: https://api.provider.test
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Listen != ":8080" {
		t.Fatalf("listen = %q, want :8080", cfg.Server.Listen)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("poll interval = %v, want 2s", cfg.PollInterval())
	}
	if cfg.Staleness() != 15*time.Minute {
		t.Fatalf("staleness = %v, want 15m", cfg.Staleness())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v, want info/json", cfg.Logging)
	}
	if cfg.Upstream.PageSize != 100 {
		t.Fatalf("page size = %d, want 100", cfg.Upstream.PageSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9090"
  auth_token: secret
upstream:
  base_url: https://api.provider.test
  timeout_seconds: 3
live:
  poll_interval_ms: 500
  staleness_minutes: 5
logging:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Listen != ":9090" || cfg.Server.AuthToken != "secret" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("poll interval = %v, want 500ms", cfg.PollInterval())
	}
	if cfg.Staleness() != 5*time.Minute {
		t.Fatalf("staleness = %v, want 5m", cfg.Staleness())
	}
	if cfg.UpstreamTimeout() != 3*time.Second {
		t.Fatalf("timeout = %v, want 3s", cfg.UpstreamTimeout())
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error when upstream.base_url is missing")
	}
}

func TestLoadClampsAbsurdPollInterval(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: https://api.provider.test
live:
  poll_interval_ms: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("poll interval = %v, want clamped default 2s", cfg.PollInterval())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: https://api.provider.test
live:
  poll_interval_ms: 2000
`)

	reloaded := make(chan *Config, 1)
	stop, err := Watch(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte(`
upstream:
  base_url: https://api.provider.test
live:
  poll_interval_ms: 750
`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.PollInterval() != 750*time.Millisecond {
			t.Fatalf("reloaded poll interval = %v, want 750ms", cfg.PollInterval())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestWatchIgnoresBrokenConfig(t *testing.T) {
	path := writeConfig(t, `
upstream:
  base_url: https://api.provider.test
`)

	reloaded := make(chan *Config, 4)
	stop, err := Watch(path, func(cfg *Config) { reloaded <- cfg })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	// Invalid config (missing base_url) must not reach the callback.
	if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("broken config was applied: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
