package config

import (
	"fmt"
	"time"
)

// APIConfig defines the HTTP control surface.
type APIConfig struct {
	Addr string `json:"addr"`
	// ShutdownSeconds bounds graceful shutdown.
	ShutdownSeconds int `json:"shutdown_seconds"`
	// MaxAgents caps the community size accepted from HTTP requests.
	MaxAgents int `json:"max_agents"`
	// Token, when set, requires "Authorization: Bearer <token>" on every
	// request.
	Token string `json:"token"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownSeconds == 0 {
		c.ShutdownSeconds = 5
	}
	if c.MaxAgents == 0 {
		c.MaxAgents = 1000
	}
}

func (c APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("api.addr is required")
	}
	if c.ShutdownSeconds < 0 || c.MaxAgents < 0 {
		return fmt.Errorf("api settings must not be negative")
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c APIConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}
