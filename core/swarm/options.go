package swarm

import (
	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/environment"
	"github.com/kilianp07/solarswarm/core/logger"
	"github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/topology"
	"github.com/kilianp07/solarswarm/internal/eventbus"
)

// DefaultBatteryCapacity is the per-agent storage in kWh.
const DefaultBatteryCapacity = 10.0

// DefaultHours is the default simulation horizon: one day.
const DefaultHours = 24

type options struct {
	capacity    float64
	window      int
	noise       float64
	policy      agent.Policy
	retainInbox bool
	log         logger.Logger
	sink        metrics.MetricsSink
	bus         eventbus.EventBus
	runID       string
	scenario    string
}

func defaultOptions() options {
	return options{
		capacity: DefaultBatteryCapacity,
		window:   topology.DefaultWindow,
		noise:    environment.DefaultNoiseStdDev,
		log:      logger.Nop{},
		sink:     metrics.NopSink{},
		scenario: "default",
	}
}

// Option customises a Simulation.
type Option func(*options)

// WithBatteryCapacity sets the storage of every agent.
func WithBatteryCapacity(kwh float64) Option { return func(o *options) { o.capacity = kwh } }

// WithNeighborWindow sets the topology radius.
func WithNeighborWindow(w int) Option { return func(o *options) { o.window = w } }

// WithNoiseStdDev sets the standard deviation of production noise.
func WithNoiseStdDev(sigma float64) Option { return func(o *options) { o.noise = sigma } }

// WithPolicy replaces the default rule chain for every agent.
func WithPolicy(p agent.Policy) Option { return func(o *options) { o.policy = p } }

// WithRetainInbox keeps messages from previous hours in agent inboxes.
func WithRetainInbox(retain bool) Option { return func(o *options) { o.retainInbox = retain } }

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = logger.OrNop(l) }
}

// WithMetrics feeds every tick to sink synchronously. Sink errors are logged
// and never abort the run.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithEventBus publishes TickEvent and RunEvent values on bus.
func WithEventBus(bus eventbus.EventBus) Option { return func(o *options) { o.bus = bus } }

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option { return func(o *options) { o.runID = id } }

// WithScenario labels the run in metrics and the run log.
func WithScenario(name string) Option { return func(o *options) { o.scenario = name } }
