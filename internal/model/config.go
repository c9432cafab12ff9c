package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// BackendConfig locates the inventory backend.
type BackendConfig struct {
	// BaseURL is the root of the REST API (e.g., http://localhost:8000).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// WSURL is the push channel endpoint.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// PollIntervalSec, when positive, pulls the alert snapshot on this
	// interval while the push channel is down. Zero disables polling.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// PushConfig controls the notification push channel.
type PushConfig struct {
	Enabled          bool `mapstructure:"enabled" yaml:"enabled"`
	ReconnectDelayMS int  `mapstructure:"reconnect_delay_ms" yaml:"reconnect_delay_ms"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LoggingConfig controls the structured log sink.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	// ListenAddr is the address for /metrics; empty disables it.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// StorageConfig locates local state.
type StorageConfig struct {
	HistoryDB string `mapstructure:"history_db" yaml:"history_db"`
}

// Preferences are the user's notification preferences. The backend
// owns delivery for email and SMS; the console only records them.
type Preferences struct {
	Email    bool `mapstructure:"email" yaml:"email"`
	Push     bool `mapstructure:"push" yaml:"push"`
	SMS      bool `mapstructure:"sms" yaml:"sms"`
	LowStock bool `mapstructure:"low_stock" yaml:"low_stock"`
	Expiry   bool `mapstructure:"expiry" yaml:"expiry"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend     BackendConfig `mapstructure:"backend" yaml:"backend"`
	Push        PushConfig    `mapstructure:"push" yaml:"push"`
	Display     DisplayConfig `mapstructure:"display" yaml:"display"`
	Logging     LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics     MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Storage     StorageConfig `mapstructure:"storage" yaml:"storage"`
	Preferences Preferences   `mapstructure:"preferences" yaml:"preferences"`
}

// configDir returns ~/.config/medchain, or "." if the home directory
// cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "medchain")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/medchain/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			BaseURL:    "http://localhost:8000",
			WSURL:      "ws://localhost:8000/ws/notifications",
			TimeoutSec: 30,
		},
		Push: PushConfig{
			Enabled:          true,
			ReconnectDelayMS: 5000,
		},
		Display: DisplayConfig{Theme: "default"},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(configDir(), "medchain.log"),
		},
		Storage: StorageConfig{
			HistoryDB: filepath.Join(configDir(), "history.db"),
		},
		Preferences: Preferences{
			Email:    true,
			Push:     true,
			LowStock: true,
			Expiry:   true,
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so that environment
// overrides resolve for every key.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.ws_url", d.Backend.WSURL)
	v.SetDefault("backend.timeout_sec", d.Backend.TimeoutSec)
	v.SetDefault("backend.poll_interval_sec", d.Backend.PollIntervalSec)
	v.SetDefault("push.enabled", d.Push.Enabled)
	v.SetDefault("push.reconnect_delay_ms", d.Push.ReconnectDelayMS)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("metrics.listen_addr", d.Metrics.ListenAddr)
	v.SetDefault("storage.history_db", d.Storage.HistoryDB)
	v.SetDefault("preferences.email", d.Preferences.Email)
	v.SetDefault("preferences.push", d.Preferences.Push)
	v.SetDefault("preferences.sms", d.Preferences.SMS)
	v.SetDefault("preferences.low_stock", d.Preferences.LowStock)
	v.SetDefault("preferences.expiry", d.Preferences.Expiry)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// MEDCHAIN_* environment variables override file values (for example
// MEDCHAIN_BACKEND_BASE_URL). If the file does not exist, defaults plus
// environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MEDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Backend.TimeoutSec <= 0 {
		cfg.Backend.TimeoutSec = 30
	}
	if cfg.Push.ReconnectDelayMS <= 0 {
		cfg.Push.ReconnectDelayMS = 5000
	}
	cfg.Logging.File = ExpandHome(cfg.Logging.File)
	cfg.Storage.HistoryDB = ExpandHome(cfg.Storage.HistoryDB)

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("push", cfg.Push)
	v.Set("display", cfg.Display)
	v.Set("logging", cfg.Logging)
	v.Set("metrics", cfg.Metrics)
	v.Set("storage", cfg.Storage)
	v.Set("preferences", cfg.Preferences)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
