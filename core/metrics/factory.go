package metrics

import (
	"errors"
	"fmt"

	"github.com/kilianp07/solarswarm/core/factory"
)

// sinks holds the sink types selectable from the metrics.sinks configuration
// list. Adapters register themselves from init functions.
var sinks = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available under name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// SinkTypes lists the registered sink type names.
func SinkTypes() []string { return sinks.Types() }

// NewMetricsSink builds the configured sinks. An empty list yields a NopSink
// and several entries are combined into a MultiSink. If one entry fails the
// sinks already built are closed before the error is returned.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		s, err := sinks.Create(cfgs[0])
		if err != nil {
			return nil, fmt.Errorf("sink 0: %w", err)
		}
		return s, nil
	}
	built := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			closeErr := NewMultiSink(built...).Close()
			return nil, errors.Join(fmt.Errorf("sink %d: %w", i, err), closeErr)
		}
		built = append(built, s)
	}
	return NewMultiSink(built...), nil
}
