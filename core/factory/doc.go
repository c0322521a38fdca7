// Package factory instantiates pluggable modules, such as metrics sinks, from
// configuration. A module is named by a type string and carries a map of raw
// settings that its factory decodes into a typed struct.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c influxConf
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInflux(c), nil
//	})
package factory
