// Package config handles dmxctl configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for dmxctl.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Server holds bridge connection settings.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// History settings for the command history store.
	History HistoryConfig `yaml:"history" mapstructure:"history"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Console settings
	Console ConsoleConfig `yaml:"console" mapstructure:"console"`
}

// GlobalConfig contains global dmxctl settings.
type GlobalConfig struct {
	// DataDir is where dmxctl stores its data (default: ~/.local/share/dmxctl).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/dmxctl).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// ServerConfig contains bridge connection settings.
type ServerConfig struct {
	// URL is the base URL of the bridge REST API.
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout is the per-request timeout for bridge calls.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HistoryConfig contains command history settings.
type HistoryConfig struct {
	// Path is the SQLite history database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// MaxEntries is the number of commands retained before pruning.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The interactive console always
	// logs to a file; this overrides its default location.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// ConsoleConfig contains interactive console settings.
type ConsoleConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// WatchInterval is the initial refresh interval for watch mode.
	WatchInterval time.Duration `yaml:"watch_interval" mapstructure:"watch_interval"`

	// LogPageSize is the number of entries per page in log view mode.
	LogPageSize int `yaml:"log_page_size" mapstructure:"log_page_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "dmxctl"),
			ConfigDir: filepath.Join(homeDir, ".config", "dmxctl"),
		},
		Server: ServerConfig{
			URL:     "http://127.0.0.1:8765",
			Timeout: 10 * time.Second,
		},
		History: HistoryConfig{
			Path:       "", // Will be set to DataDir/history.db
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Console: ConsoleConfig{
			Theme:         "default",
			WatchInterval: 2 * time.Second,
			LogPageSize:   50,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https")
	}

	if c.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1s")
	}

	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be at least 1")
	}

	if c.Console.WatchInterval < 500*time.Millisecond {
		return fmt.Errorf("console.watch_interval must be at least 500ms")
	}

	if c.Console.LogPageSize < 1 || c.Console.LogPageSize > 500 {
		return fmt.Errorf("console.log_page_size must be between 1 and 500")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// HistoryPath returns the full history database path.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.Global.DataDir, "history.db")
}

// LogFilePath returns the log file path used while the console owns the
// terminal.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Global.DataDir, "dmxctl.log")
}

// ContextPath returns the path of the persisted session context file.
func (c *Config) ContextPath() string {
	return filepath.Join(c.Global.ConfigDir, "context.yaml")
}
