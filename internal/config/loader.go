package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHATROOM"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Backend.Kind = strings.ToLower(strings.TrimSpace(cfg.Backend.Kind))
	cfg.Identity.UserID = strings.TrimSpace(cfg.Identity.UserID)

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandTilde(cfg.Global.ConfigDir)
	cfg.Backend.SQLitePath = expandTilde(cfg.Backend.SQLitePath)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "chatroom"))
	}
	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "chatroom"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	// Unmarshal only sees env vars for nested keys that were bound explicitly.
	bindEnvVars(v)

	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	v.SetDefault("global.data_dir", cfg.Global.DataDir)
	v.SetDefault("global.config_dir", cfg.Global.ConfigDir)

	v.SetDefault("identity.user_id", cfg.Identity.UserID)

	v.SetDefault("backend.kind", cfg.Backend.Kind)
	v.SetDefault("backend.sqlite_path", cfg.Backend.SQLitePath)
	v.SetDefault("backend.addr", cfg.Backend.Addr)
	v.SetDefault("backend.dial_timeout", cfg.Backend.DialTimeout)
	v.SetDefault("backend.request_timeout", cfg.Backend.RequestTimeout)
	v.SetDefault("backend.poll_interval", cfg.Backend.PollInterval)
	v.SetDefault("backend.reconnect_interval", cfg.Backend.ReconnectInterval)
	v.SetDefault("backend.subscribe_buffer", cfg.Backend.SubscribeBuffer)
	v.SetDefault("backend.profile_cache_ttl", cfg.Backend.ProfileCacheTTL)

	v.SetDefault("server.listen", cfg.Server.Listen)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	v.SetDefault("tui.theme", cfg.TUI.Theme)
	v.SetDefault("tui.toast_duration", cfg.TUI.ToastDuration)
	v.SetDefault("tui.mouse", cfg.TUI.Mouse)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Set overrides a key; CLI flags land here and beat every other source.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// Viper returns the underlying Viper instance for advanced use.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	return NewLoader().Load()
}

var envBindings = []string{
	"global.data_dir",
	"global.config_dir",
	"identity.user_id",
	"backend.kind",
	"backend.sqlite_path",
	"backend.addr",
	"backend.dial_timeout",
	"backend.request_timeout",
	"backend.poll_interval",
	"backend.reconnect_interval",
	"backend.subscribe_buffer",
	"backend.profile_cache_ttl",
	"server.listen",
	"logging.level",
	"logging.format",
	"logging.file",
	"logging.enable_caller",
	"tui.theme",
	"tui.toast_duration",
	"tui.mouse",
}

// bindEnvVars binds CHATROOM_* variables: backend.poll_interval ->
// CHATROOM_BACKEND_POLL_INTERVAL.
func bindEnvVars(v *viper.Viper) {
	for _, key := range envBindings {
		envVar := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envVar)
	}
}
