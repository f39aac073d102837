package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.URL != "http://127.0.0.1:8765" {
		t.Errorf("Server.URL = %v", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("Server.Timeout = %v", cfg.Server.Timeout)
	}
	if cfg.Console.WatchInterval != 2*time.Second {
		t.Errorf("Console.WatchInterval = %v", cfg.Console.WatchInterval)
	}
	if cfg.Console.LogPageSize != 50 {
		t.Errorf("Console.LogPageSize = %v", cfg.Console.LogPageSize)
	}
	if cfg.History.MaxEntries != 1000 {
		t.Errorf("History.MaxEntries = %v", cfg.History.MaxEntries)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing server url",
			mutate:  func(c *Config) { c.Server.URL = "" },
			wantErr: "server.url is required",
		},
		{
			name:    "unparseable server url",
			mutate:  func(c *Config) { c.Server.URL = "://bridge" },
			wantErr: "server.url is not a valid URL",
		},
		{
			name:    "wrong scheme",
			mutate:  func(c *Config) { c.Server.URL = "ftp://bridge" },
			wantErr: "server.url must use http or https",
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.Server.Timeout = 500 * time.Millisecond },
			wantErr: "server.timeout must be at least 1s",
		},
		{
			name:    "max entries too small",
			mutate:  func(c *Config) { c.History.MaxEntries = 0 },
			wantErr: "history.max_entries must be at least 1",
		},
		{
			name:    "watch interval below floor",
			mutate:  func(c *Config) { c.Console.WatchInterval = 499 * time.Millisecond },
			wantErr: "console.watch_interval must be at least 500ms",
		},
		{
			name:    "watch interval at floor",
			mutate:  func(c *Config) { c.Console.WatchInterval = 500 * time.Millisecond },
			wantErr: "",
		},
		{
			name:    "page size too small",
			mutate:  func(c *Config) { c.Console.LogPageSize = 0 },
			wantErr: "console.log_page_size must be between 1 and 500",
		},
		{
			name:    "page size too large",
			mutate:  func(c *Config) { c.Console.LogPageSize = 501 },
			wantErr: "console.log_page_size must be between 1 and 500",
		},
		{
			name:    "page size at cap",
			mutate:  func(c *Config) { c.Console.LogPageSize = 500 },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.DataDir = "/data/dmxctl"
	cfg.Global.ConfigDir = "/conf/dmxctl"

	if got := cfg.HistoryPath(); got != filepath.Join("/data/dmxctl", "history.db") {
		t.Errorf("HistoryPath() = %v", got)
	}
	cfg.History.Path = "/elsewhere/history.db"
	if got := cfg.HistoryPath(); got != "/elsewhere/history.db" {
		t.Errorf("HistoryPath() with override = %v", got)
	}

	if got := cfg.LogFilePath(); got != filepath.Join("/data/dmxctl", "dmxctl.log") {
		t.Errorf("LogFilePath() = %v", got)
	}
	cfg.Logging.File = "/var/log/dmxctl.log"
	if got := cfg.LogFilePath(); got != "/var/log/dmxctl.log" {
		t.Errorf("LogFilePath() with override = %v", got)
	}

	if got := cfg.ContextPath(); got != filepath.Join("/conf/dmxctl", "context.yaml") {
		t.Errorf("ContextPath() = %v", got)
	}
}

func TestLoaderDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "http://127.0.0.1:8765" {
		t.Errorf("Server.URL = %v", cfg.Server.URL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Global.DataDir != filepath.Join(home, ".local", "share", "dmxctl") {
		t.Errorf("Global.DataDir = %v", cfg.Global.DataDir)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Global.DataDir, "history.db") {
		t.Errorf("HistoryPath() = %v", cfg.HistoryPath())
	}
}

func TestLoaderReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  url: http://bridge.lan:9000
  timeout: 30s
logging:
  level: debug
  format: json
console:
  theme: dark
  watch_interval: 1s
  log_page_size: 25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "http://bridge.lan:9000" {
		t.Errorf("Server.URL = %v", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v", cfg.Server.Timeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Console.Theme != "dark" || cfg.Console.WatchInterval != time.Second || cfg.Console.LogPageSize != 25 {
		t.Errorf("unexpected console config: %+v", cfg.Console)
	}
	if loader.ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %v, want %v", loader.ConfigFileUsed(), path)
	}
}

func TestLoaderEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("DMXCTL_SERVER_URL", "http://env-bridge:8765")
	t.Setenv("DMXCTL_SERVER_TIMEOUT", "5s")
	t.Setenv("DMXCTL_LOGGING_LEVEL", "debug")
	t.Setenv("DMXCTL_CONSOLE_THEME", "high-contrast")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "http://env-bridge:8765" {
		t.Errorf("Server.URL = %v", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Server.Timeout = %v", cfg.Server.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v", cfg.Logging.Level)
	}
	if cfg.Console.Theme != "high-contrast" {
		t.Errorf("Console.Theme = %v", cfg.Console.Theme)
	}
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `console:
  watch_interval: 100ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	loader := NewLoader()
	loader.SetConfigFile(path)
	_, err := loader.Load()
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestLoaderMissingExplicitFile(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := loader.Load()
	if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
		t.Fatalf("expected load failure for missing explicit file, got %v", err)
	}
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/logs/dmxctl.log", want: filepath.Join(home, "logs", "dmxctl.log")},
		{in: "/absolute/path", want: "/absolute/path"},
		{in: "relative/path", want: "relative/path"},
	}
	for _, tt := range tests {
		if got := expandTilde(tt.in); got != tt.want {
			t.Errorf("expandTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
