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

	// Validation thresholds
	FaceMatchThreshold float64 `envconfig:"FACE_MATCH_THRESHOLD" default:"0.6"`
	GPSAccuracyMeters  float64 `envconfig:"GPS_ACCURACY_THRESHOLD" default:"50"`
	ClockSkewSeconds   int     `envconfig:"CLOCK_SKEW_TOLERANCE_SECONDS" default:"300"`
	MaxOfflinePerShift int     `envconfig:"OFFLINE_MAX_PER_SHIFT" default:"1"`

	// Offline sync throttling
	SyncRateLimit  int           `envconfig:"SYNC_RATE_LIMIT" default:"30"`
	SyncRateWindow time.Duration `envconfig:"SYNC_RATE_WINDOW" default:"1m"`
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
