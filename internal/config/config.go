package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultradns/ultradns-push-notifier/internal/otel"
)

// Config holds the admin console settings loaded from config.yaml.
type Config struct {
	HomeDir string `yaml:"-"`

	// ServerURL is the base URL of the push-notifier backend. The callback
	// endpoints handed to UltraDNS are derived from it, so it must be the
	// externally reachable address of the service.
	ServerURL string `yaml:"server_url"`

	LogLevel string `yaml:"log_level"`

	// RequestTimeoutSeconds bounds every backend API call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`

	// PollIntervalSeconds is the verification poll cadence while waiting
	// for the UltraDNS test message.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	Telemetry otel.Config `yaml:"telemetry"`
}

// HomeDir returns the console state directory.
func HomeDir() string {
	if override := os.Getenv("PUSHADMIN_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".pushadmin")
}

// Load reads config.yaml from the home dir, creating the dir if needed.
// A missing file yields pure defaults.
func Load() (Config, error) {
	return LoadFrom(HomeDir())
}

// LoadFrom reads config.yaml from the given dir.
func LoadFrom(homeDir string) (Config, error) {
	cfg := defaultConfig()
	cfg.HomeDir = homeDir

	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create pushadmin home: %w", err)
	}

	configPath := filepath.Join(cfg.HomeDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config.yaml: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		ServerURL:             "http://localhost:5000",
		LogLevel:              "info",
		RequestTimeoutSeconds: 15,
		PollIntervalSeconds:   3,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PUSHADMIN_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("PUSHADMIN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func normalize(cfg *Config) {
	cfg.ServerURL = strings.TrimSuffix(strings.TrimSpace(cfg.ServerURL), "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultConfig().ServerURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = 15
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 3
	}
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url %q: %w", cfg.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url %q: scheme must be http or https", cfg.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server_url %q: missing host", cfg.ServerURL)
	}
	return nil
}

// RequestTimeout returns the API call timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the verification poll cadence as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Save writes the config back to <homeDir>/config.yaml.
func Save(cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(cfg.HomeDir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}
	return nil
}
