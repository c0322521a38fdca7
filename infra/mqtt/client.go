// Package mqtt publishes simulation telemetry to an MQTT broker. Agent
// messages never leave the process; only hourly community totals and run
// summaries are published.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/infra/logger"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher is a metrics sink that publishes JSON telemetry.
//
// Topics:
//
//	<prefix>/status                 online / offline (retained, last will)
//	<prefix>/runs/<run_id>/tick     one message per simulated hour
//	<prefix>/runs/<run_id>/summary  run summary (retained)
type Publisher struct {
	cli        pahoClient
	cfg        Config
	log        logger.Logger
	maxRetries int
	backoff    time.Duration
}

// TickMessage is the payload of a tick topic.
type TickMessage struct {
	RunID          string         `json:"run_id"`
	Tick           int            `json:"tick"`
	Hour           int            `json:"hour"`
	ProductionKWh  float64        `json:"production_kwh"`
	ConsumptionKWh float64        `json:"consumption_kwh"`
	SolarUsedKWh   float64        `json:"solar_used_kwh"`
	GridImportKWh  float64        `json:"grid_import_kwh"`
	SharedKWh      float64        `json:"shared_kwh"`
	Battery        float64        `json:"battery_fraction"`
	Actions        map[string]int `json:"actions"`
	Timestamp      int64          `json:"timestamp"`
}

// SummaryMessage is the payload of a summary topic.
type SummaryMessage struct {
	RunID               string  `json:"run_id"`
	Scenario            string  `json:"scenario"`
	Agents              int     `json:"agents"`
	Hours               int     `json:"hours"`
	Ticks               int     `json:"ticks"`
	SolarUsedKWh        float64 `json:"solar_used_kwh"`
	GridImportKWh       float64 `json:"grid_import_kwh"`
	SharedKWh           float64 `json:"shared_kwh"`
	SolarUtilizationPct float64 `json:"solar_utilization_pct"`
	Cancelled           bool    `json:"cancelled"`
	Timestamp           int64   `json:"timestamp"`
}

// NewPublisher connects to the broker and announces the publisher online.
func NewPublisher(cfg Config) (*Publisher, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &Publisher{
		cfg:        cfg,
		log:        log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Publish(cfg.Topic("status"), cfg.qos("status"), true, statusOnline); token.Wait() && token.Error() != nil {
			log.Errorf("status publish error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config. The last will
// marks the publisher offline.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(cfg.Topic("status"), statusOffline, cfg.qos("status"), true)
	return opts, nil
}

// RecordTick publishes one tick message.
func (p *Publisher) RecordTick(r coremetrics.TickRecord) error {
	msg := TickMessage{
		RunID:          r.RunID,
		Tick:           r.Tick,
		Hour:           r.HourOfDay,
		ProductionKWh:  r.Production,
		ConsumptionKWh: r.Consumption,
		SolarUsedKWh:   r.SolarUsed,
		GridImportKWh:  r.GridImport,
		SharedKWh:      r.Shared,
		Battery:        r.AvgBatteryFraction,
		Actions:        r.Actions,
		Timestamp:      r.Time.UnixMilli(),
	}
	return p.publishJSON(p.cfg.Topic("runs", r.RunID, "tick"), p.cfg.qos("tick"), false, msg)
}

// RecordRun publishes the retained run summary.
func (p *Publisher) RecordRun(r coremetrics.RunRecord) error {
	msg := SummaryMessage{
		RunID:               r.RunID,
		Scenario:            r.Scenario,
		Agents:              r.Agents,
		Hours:               r.Hours,
		Ticks:               r.Ticks,
		SolarUsedKWh:        r.TotalSolarUsed,
		GridImportKWh:       r.TotalGridImport,
		SharedKWh:           r.TotalShared,
		SolarUtilizationPct: r.SolarUtilizationPct,
		Cancelled:           r.Cancelled,
		Timestamp:           r.Time.UnixMilli(),
	}
	return p.publishJSON(p.cfg.Topic("runs", r.RunID, "summary"), p.cfg.qos("summary"), true, msg)
}

func (p *Publisher) publishJSON(topic string, qos byte, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published %s", topic)
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect marks the publisher offline and closes the connection.
func (p *Publisher) Disconnect() {
	if p.cli == nil {
		return
	}
	if p.cli.IsConnected() {
		token := p.cli.Publish(p.cfg.Topic("status"), p.cfg.qos("status"), true, statusOffline)
		token.WaitTimeout(time.Second)
	}
	p.cli.Disconnect(250)
}

// Close disconnects the publisher.
func (p *Publisher) Close() error {
	p.Disconnect()
	return nil
}
