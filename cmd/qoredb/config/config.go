// Package config provides configuration structures for the QoreDB safety layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/raphplt/QoreDB/pkg/services"
)

// Config represents the safety layer configuration.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`

	// Safety policy applied on top of per-connection flags
	Policy services.SafetyPolicy `yaml:"policy" json:"policy" mapstructure:"policy"`

	// Metadata cache configuration
	Cache CacheConfig `yaml:"cache" json:"cache" mapstructure:"cache"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// CacheConfig represents metadata cache configuration.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" json:"address" mapstructure:"address"`
	Path    string `yaml:"path" json:"path" mapstructure:"path"`
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "":
		c.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.LogLevel)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	return nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Policy:   services.DefaultSafetyPolicy(),
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
	}
}

// DefaultPath returns the stored configuration location, ~/.qoredb/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".qoredb", "config.yaml")
}

// Load reads configuration from the given file (or the default location
// when path is empty), then applies QOREDB_* environment overrides.
// Environment variables win over the stored file, so managed deployments
// can pin the policy regardless of local edits.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := DefaultConfig()
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("policy.prod_require_confirmation", cfg.Policy.ProdRequireConfirmation)
	v.SetDefault("policy.prod_block_dangerous_sql", cfg.Policy.ProdBlockDangerousSQL)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.address", cfg.Metrics.Address)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// A missing stored config is not an error; defaults apply.
			if !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, fmt.Errorf("failed to read config file: %w", err)
				}
			}
		}
	}

	v.SetEnvPrefix("QOREDB")
	v.AutomaticEnv()
	bindEnvOverrides(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// bindEnvOverrides maps nested keys to flat QOREDB_* variables, e.g.
// QOREDB_PROD_BLOCK_DANGEROUS_SQL=true.
func bindEnvOverrides(v *viper.Viper) {
	_ = v.BindEnv("log_level", "QOREDB_LOG_LEVEL")
	_ = v.BindEnv("policy.prod_require_confirmation", "QOREDB_PROD_REQUIRE_CONFIRMATION")
	_ = v.BindEnv("policy.prod_block_dangerous_sql", "QOREDB_PROD_BLOCK_DANGEROUS_SQL")
	_ = v.BindEnv("cache.ttl", "QOREDB_CACHE_TTL")
	_ = v.BindEnv("metrics.enabled", "QOREDB_METRICS_ENABLED")
	_ = v.BindEnv("metrics.address", "QOREDB_METRICS_ADDRESS")
}
