package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/solarswarm/core/factory"
	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/metrics/community"
	"github.com/kilianp07/solarswarm/infra/mqtt"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})

	_ = coremetrics.RegisterMetricsSink("community", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		p := community.DefaultParams()
		if err := factory.Decode(conf, &p); err != nil {
			return nil, err
		}
		return NewCommunitySink(p, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		c := mqtt.DefaultConfig()
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return mqtt.NewPublisher(c)
	})
}
