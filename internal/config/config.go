package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AuthToken      string   `mapstructure:"auth_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UpstreamConfig holds settings for the telephony provider API.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	PageSize       int    `mapstructure:"page_size"`
}

// LiveConfig controls the live-call poll loop.
type LiveConfig struct {
	PollIntervalMs   int `mapstructure:"poll_interval_ms"`
	StalenessMinutes int `mapstructure:"staleness_minutes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Live     LiveConfig     `mapstructure:"live"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PollInterval returns the poll period as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Live.PollIntervalMs) * time.Millisecond
}

// Staleness returns the maximum age a call may have before it is dropped
// from snapshots regardless of its reported status.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.Live.StalenessMinutes) * time.Minute
}

// UpstreamTimeout returns the per-request timeout for upstream calls.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// Load reads the config file at path, applying defaults and CALLDECK_*
// environment overrides (e.g. CALLDECK_UPSTREAM_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CALLDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.allowed_origins", []string{"localhost:*"})
	v.SetDefault("upstream.timeout_seconds", 10)
	v.SetDefault("upstream.page_size", 100)
	v.SetDefault("live.poll_interval_ms", 2000)
	v.SetDefault("live.staleness_minutes", 15)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validate(cfg *Config) error {
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if cfg.Live.PollIntervalMs < 100 {
		cfg.Live.PollIntervalMs = 2000
	}
	if cfg.Live.StalenessMinutes < 1 {
		cfg.Live.StalenessMinutes = 15
	}
	if cfg.Upstream.PageSize < 1 {
		cfg.Upstream.PageSize = 100
	}
	return nil
}
