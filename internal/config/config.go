package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Cache TTLs for aggregated results
	TimeSeriesCacheTTL time.Duration `envconfig:"TIMESERIES_CACHE_TTL" default:"120s"`
	KPICacheTTL        time.Duration `envconfig:"KPI_CACHE_TTL" default:"300s"`

	// Background workers
	RetentionHorizon  time.Duration `envconfig:"RETENTION_HORIZON" default:"17520h"` // 2 years
	RetentionInterval time.Duration `envconfig:"RETENTION_INTERVAL" default:"24h"`
	CacheSweepEvery   time.Duration `envconfig:"CACHE_SWEEP_EVERY" default:"10m"`
	ReportCheckEvery  time.Duration `envconfig:"REPORT_CHECK_EVERY" default:"1m"`
	AlertCheckEvery   time.Duration `envconfig:"ALERT_CHECK_EVERY" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
