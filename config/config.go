// Package config loads the service configuration from a YAML or JSON file
// with SWARM_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/runlog"
)

// EnvPrefix marks environment overrides. A double underscore separates
// nesting levels: SWARM_SIMULATION__AGENTS=20 sets simulation.agents.
const EnvPrefix = "SWARM_"

type Config struct {
	Simulation SimulationConfig `json:"simulation"`
	Economics  EconomicsConfig  `json:"economics"`
	Metrics    metrics.Config   `json:"metrics"`
	RunLog     runlog.Config    `json:"run_log"`
	API        APIConfig        `json:"api"`
	Monitoring MonitoringConfig `json:"monitoring"`
}

// Load reads path, applies environment overrides, fills defaults and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration without reading any source.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Economics.SetDefaults()
	c.RunLog.SetDefaults()
	c.API.SetDefaults()
	c.Monitoring.SetDefaults()
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	return errors.Join(
		c.Simulation.Validate(),
		c.Economics.Validate(),
		c.Metrics.Validate(),
		c.RunLog.Validate(),
		c.API.Validate(),
		c.Monitoring.Validate(),
	)
}
