package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Trend-slot variants the backend may expose.
const (
	VariantTrend        = "trend"
	VariantFileTimeline = "file_timeline"
)

type Config struct {
	BaseURL       string        `mapstructure:"base_url"`
	Bucket        string        `mapstructure:"bucket"`
	TZ            string        `mapstructure:"tz"`
	TopN          int           `mapstructure:"top_n"`
	SampleN       int           `mapstructure:"sample_n"`
	DownsampleCap int           `mapstructure:"downsample_cap"`
	TrendVariant  string        `mapstructure:"trend_variant"`
	Refresh       time.Duration `mapstructure:"refresh"` // 0 = manual refresh only
	Log           LogConfig     `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // empty = stderr
}

// Load merges defaults, an optional yaml file and ANOMDASH_* environment
// variables (env wins). path may be empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", "http://127.0.0.1:8000/api")
	v.SetDefault("bucket", "hour")
	v.SetDefault("tz", "UTC")
	v.SetDefault("top_n", 10)
	v.SetDefault("sample_n", 50)
	v.SetDefault("downsample_cap", 300)
	v.SetDefault("trend_variant", VariantTrend)
	v.SetDefault("refresh", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// ANOMDASH_BASE_URL overrides base_url, ANOMDASH_LOG_LEVEL log.level, ...
	v.SetEnvPrefix("anomdash")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.TrendVariant != VariantTrend && c.TrendVariant != VariantFileTimeline {
		return fmt.Errorf("trend_variant must be %q or %q, got %q", VariantTrend, VariantFileTimeline, c.TrendVariant)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive")
	}
	if c.SampleN <= 0 {
		return fmt.Errorf("sample_n must be positive")
	}
	if c.DownsampleCap <= 0 {
		return fmt.Errorf("downsample_cap must be positive")
	}
	return nil
}
