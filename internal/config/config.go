// Package config handles chatroom configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Config is the root configuration structure for chatroom.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Identity is the signed-in user.
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`

	// Backend selects and tunes the chat provider.
	Backend BackendConfig `yaml:"backend" mapstructure:"backend"`

	// Server settings for `chatroom serve`.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where chatroom stores its data (default: ~/.local/share/chatroom).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/chatroom).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// IdentityConfig names the current user.
type IdentityConfig struct {
	UserID string `yaml:"user_id" mapstructure:"user_id"`
}

// BackendConfig contains provider settings.
type BackendConfig struct {
	// Kind is one of memory, sqlite, remote.
	Kind string `yaml:"kind" mapstructure:"kind"`

	// SQLitePath is the database file (default: DataDir/chatroom.db).
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// Addr is the chatroom daemon address for the remote kind.
	Addr string `yaml:"addr" mapstructure:"addr"`

	DialTimeout       time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	PollInterval      time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval" mapstructure:"reconnect_interval"`

	// SubscribeBuffer is the channel depth of a message subscription.
	SubscribeBuffer int `yaml:"subscribe_buffer" mapstructure:"subscribe_buffer"`

	// ProfileCacheTTL bounds how long a fetched profile is reused.
	ProfileCacheTTL time.Duration `yaml:"profile_cache_ttl" mapstructure:"profile_cache_ttl"`
}

// ServerConfig contains daemon settings.
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. Interactive sessions default to
	// DataDir/chatroom.log.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ToastDuration is how long a notification stays in the footer.
	ToastDuration time.Duration `yaml:"toast_duration" mapstructure:"toast_duration"`

	// Mouse enables pointer events.
	Mouse bool `yaml:"mouse" mapstructure:"mouse"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "chatroom"),
			ConfigDir: filepath.Join(homeDir, ".config", "chatroom"),
		},
		Backend: BackendConfig{
			Kind:              BackendSQLite,
			Addr:              "127.0.0.1:50061",
			DialTimeout:       5 * time.Second,
			RequestTimeout:    10 * time.Second,
			PollInterval:      500 * time.Millisecond,
			ReconnectInterval: 2 * time.Second,
			SubscribeBuffer:   16,
			ProfileCacheTTL:   time.Minute,
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:50061",
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		TUI: TUIConfig{
			Theme:         "default",
			ToastDuration: 3 * time.Second,
			Mouse:         true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend.Kind)) {
	case BackendMemory, BackendSQLite:
	case BackendRemote:
		if strings.TrimSpace(c.Backend.Addr) == "" {
			return fmt.Errorf("backend.addr is required for the remote backend")
		}
	default:
		return fmt.Errorf("backend.kind must be one of memory, sqlite, remote")
	}

	if c.Backend.PollInterval < 50*time.Millisecond {
		return fmt.Errorf("backend.poll_interval must be at least 50ms")
	}
	if c.Backend.ReconnectInterval < 100*time.Millisecond {
		return fmt.Errorf("backend.reconnect_interval must be at least 100ms")
	}
	if c.Backend.SubscribeBuffer < 1 {
		return fmt.Errorf("backend.subscribe_buffer must be at least 1")
	}
	if c.Backend.DialTimeout <= 0 || c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend timeouts must be positive")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be one of default, high-contrast")
	}

	return nil
}

// RequireIdentity reports a usable error when no user is configured.
func (c *Config) RequireIdentity() error {
	if strings.TrimSpace(c.Identity.UserID) == "" {
		return fmt.Errorf("identity.user_id is required (set CHATROOM_IDENTITY_USER_ID or --user)")
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

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Backend.SQLitePath != "" {
		return c.Backend.SQLitePath
	}
	return filepath.Join(c.Global.DataDir, "chatroom.db")
}

// LogFilePath returns the log file for interactive sessions.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Global.DataDir, "chatroom.log")
}
