package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/openquant/hindsight/internal/backtest"
	"github.com/openquant/hindsight/internal/core"
)

type Config struct {
	Server     Server                    `mapstructure:"server"`
	Provider   Provider                  `mapstructure:"provider"`
	Backtest   Backtest                  `mapstructure:"backtest"`
	Cache      Cache                     `mapstructure:"cache"`
	Archive    Archive                   `mapstructure:"archive"`
	Scan       Scan                      `mapstructure:"scan"`
	Metrics    Metrics                   `mapstructure:"metrics"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
}

type Server struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

type Provider struct {
	Type string `mapstructure:"type"` // "sqlite"
	Path string `mapstructure:"path"` // SQLite database file
}

type Backtest struct {
	SuccessThreshold float64 `mapstructure:"success_threshold"`
	FailureThreshold float64 `mapstructure:"failure_threshold"`
	HorizonDays      int     `mapstructure:"horizon_days"`
	MinHistoryBars   int     `mapstructure:"min_history_bars"`
	Workers          int     `mapstructure:"workers"` // 0 = CPUs-1
}

type Cache struct {
	MaxEntries int `mapstructure:"max_entries"`
}

type Archive struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type Scan struct {
	Schedule string   `mapstructure:"schedule"` // Cron expression; empty disables.
	Strategy string   `mapstructure:"strategy"`
	Symbols  []string `mapstructure:"symbols"` // Empty = every symbol the provider has.
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type StrategyConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// Load reads configuration from file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Server: Server{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Provider: Provider{
			Type: "sqlite",
			Path: "data/bars.db",
		},
		Backtest: Backtest{
			SuccessThreshold: 0.15,
			FailureThreshold: -0.08,
			HorizonDays:      60,
			MinHistoryBars:   backtest.DefaultMinHistoryBars,
		},
		Cache: Cache{
			MaxEntries: backtest.DefaultCacheEntries,
		},
		Archive: Archive{
			Type: "localfs",
			Path: "data/reports",
		},
		Scan: Scan{
			Strategy: "stagebreak",
		},
		Metrics: Metrics{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Policy builds the backtest policy from the configured thresholds.
func (c *Config) Policy() backtest.Policy {
	return backtest.Policy{
		SuccessThreshold: c.Backtest.SuccessThreshold,
		FailureThreshold: c.Backtest.FailureThreshold,
		HorizonDays:      c.Backtest.HorizonDays,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Provider.Type {
	case "sqlite":
		if c.Provider.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("provider path required when type is sqlite"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown provider type %q", c.Provider.Type))
	}

	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if c.Backtest.Workers < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("workers cannot be negative, got %d", c.Backtest.Workers))
	}
	if c.Backtest.MinHistoryBars < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_history_bars must be positive, got %d", c.Backtest.MinHistoryBars))
	}
	if c.Cache.MaxEntries < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache max_entries must be positive, got %d", c.Cache.MaxEntries))
	}

	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type %q", c.Archive.Type))
	}

	return nil
}
