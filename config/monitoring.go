package config

import (
	"fmt"
	"os"
)

// MonitoringConfig defines settings for Sentry error reporting. Reporting
// is disabled when DSN is empty.
type MonitoringConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

func (c *MonitoringConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = os.Getenv("APP_ENV")
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
}

func (c MonitoringConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("monitoring.traces_sample_rate must be within [0,1], got %.3f", c.TracesSampleRate)
	}
	return nil
}
