package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DatasetConfig points at the brand metrics export.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the import interval of the daemon.
type ScheduleConfig struct {
	ImportInterval string `yaml:"import_interval"`
}

// ParseImportInterval returns the import interval as time.Duration.
func (s ScheduleConfig) ParseImportInterval() time.Duration {
	d, err := time.ParseDuration(s.ImportInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RangeConfig is a min/max pair mapped onto 0-100.
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// WeightsConfig splits a score across visits, spend and transactions.
type WeightsConfig struct {
	Visits float64 `yaml:"visits"`
	Spend  float64 `yaml:"spend"`
	Txns   float64 `yaml:"txns"`
}

// ScoringConfig holds the scoring constants.
type ScoringConfig struct {
	GrowthRange   RangeConfig   `yaml:"growth_range"`
	GrowthWeights WeightsConfig `yaml:"growth_weights"`
	HeatRange     RangeConfig   `yaml:"heat_range"`
	HeatWeights   WeightsConfig `yaml:"heat_weights"`
	HeatCap       float64       `yaml:"heat_cap"`
	TotalGrowth   float64       `yaml:"total_growth_weight"`
	TotalHeat     float64       `yaml:"total_heat_weight"`
}

// Params converts the section into calculator parameters.
func (s ScoringConfig) Params() score.Params {
	return score.Params{
		GrowthRange:       score.Range{Min: s.GrowthRange.Min, Max: s.GrowthRange.Max},
		GrowthWeights:     score.Weights{Visits: s.GrowthWeights.Visits, Spend: s.GrowthWeights.Spend, Txns: s.GrowthWeights.Txns},
		HeatRange:         score.Range{Min: s.HeatRange.Min, Max: s.HeatRange.Max},
		HeatWeights:       score.Weights{Visits: s.HeatWeights.Visits, Spend: s.HeatWeights.Spend, Txns: s.HeatWeights.Txns},
		HeatCap:           s.HeatCap,
		TotalGrowthWeight: s.TotalGrowth,
		TotalHeatWeight:   s.TotalHeat,
	}
}

func scoringFrom(p score.Params) ScoringConfig {
	return ScoringConfig{
		GrowthRange:   RangeConfig{Min: p.GrowthRange.Min, Max: p.GrowthRange.Max},
		GrowthWeights: WeightsConfig{Visits: p.GrowthWeights.Visits, Spend: p.GrowthWeights.Spend, Txns: p.GrowthWeights.Txns},
		HeatRange:     RangeConfig{Min: p.HeatRange.Min, Max: p.HeatRange.Max},
		HeatWeights:   WeightsConfig{Visits: p.HeatWeights.Visits, Spend: p.HeatWeights.Spend, Txns: p.HeatWeights.Txns},
		HeatCap:       p.HeatCap,
		TotalGrowth:   p.TotalGrowthWeight,
		TotalHeat:     p.TotalHeatWeight,
	}
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	// MinRankChange is the smallest rank movement worth a notification.
	MinRankChange int           `yaml:"min_rank_change"`
	Slack         SlackConfig   `yaml:"slack"`
	Discord       DiscordConfig `yaml:"discord"`
	Webhook       WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./retailindex.db"},
		Dataset:  DatasetConfig{Path: "./data/brands.json"},
		Schedule: ScheduleConfig{ImportInterval: "1h"},
		Scoring:  scoringFrom(score.DefaultParams()),
		Alerts:   AlertsConfig{MinRankChange: 5},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
// A .env file in the working directory is loaded first; variables already
// set in the environment win over it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Scoring.Params().Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RETAILINDEX_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RETAILINDEX_DATASET"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("RETAILINDEX_IMPORT_INTERVAL"); v != "" {
		cfg.Schedule.ImportInterval = v
	}
	if v := os.Getenv("RETAILINDEX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RETAILINDEX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RETAILINDEX_MIN_RANK_CHANGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse RETAILINDEX_MIN_RANK_CHANGE: %w", err)
		}
		cfg.Alerts.MinRankChange = n
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("RETAILINDEX_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("RETAILINDEX_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
	return nil
}
