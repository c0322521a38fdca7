package metrics

import (
	"errors"
	"fmt"

	"github.com/kilianp07/solarswarm/core/factory"
)

// Config lists the sinks fed by every run.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr, when set, serves /metrics on that address.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}

// Validate checks that every sink entry names a type. Whether the type is
// registered is only known once the adapters are linked in, so that check
// happens in NewMetricsSink.
func (c Config) Validate() error {
	var errs []error
	for i, s := range c.Sinks {
		if s.Type == "" {
			errs = append(errs, fmt.Errorf("metrics.sinks[%d]: type is required", i))
		}
	}
	return errors.Join(errs...)
}
