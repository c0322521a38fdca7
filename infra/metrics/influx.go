package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes hourly flows and run summaries to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes one swarm_tick point.
func (s *InfluxSink) RecordTick(r coremetrics.TickRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, tickPoint(r))
}

// RecordRun writes one swarm_run point.
func (s *InfluxSink) RecordRun(r coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(r))
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func tickPoint(r coremetrics.TickRecord) *write.Point {
	p := write.NewPointWithMeasurement("swarm_tick").
		AddTag("run_id", r.RunID).
		AddTag("hour", strconv.Itoa(r.HourOfDay)).
		AddField("tick", r.Tick).
		AddField("production_kwh", round3(r.Production)).
		AddField("consumption_kwh", round3(r.Consumption)).
		AddField("solar_used_kwh", round3(r.SolarUsed)).
		AddField("grid_import_kwh", round3(r.GridImport)).
		AddField("shared_kwh", round3(r.Shared)).
		AddField("battery_fraction", round3(r.AvgBatteryFraction))
	for action, n := range r.Actions {
		p = p.AddField("decisions_"+action, n)
	}
	return p.SortTags().SortFields().SetTime(r.Time)
}

func runPoint(r coremetrics.RunRecord) *write.Point {
	return write.NewPointWithMeasurement("swarm_run").
		AddTag("run_id", r.RunID).
		AddTag("scenario", r.Scenario).
		AddTag("cancelled", strconv.FormatBool(r.Cancelled)).
		AddField("agents", r.Agents).
		AddField("hours", r.Hours).
		AddField("ticks", r.Ticks).
		AddField("production_kwh", round3(r.TotalProduction)).
		AddField("consumption_kwh", round3(r.TotalConsumption)).
		AddField("solar_used_kwh", round3(r.TotalSolarUsed)).
		AddField("grid_import_kwh", round3(r.TotalGridImport)).
		AddField("shared_kwh", round3(r.TotalShared)).
		AddField("solar_utilization_pct", round3(r.SolarUtilizationPct)).
		SetTime(r.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
