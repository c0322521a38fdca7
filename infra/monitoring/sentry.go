// Package monitoring reports failures to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/solarswarm/config"
	coremon "github.com/kilianp07/solarswarm/core/monitoring"
)

const serviceTag = "solarswarm"

// NewSentryReporter builds a reporter with its own Sentry client and hub, so
// the process-wide hub stays untouched. An empty DSN yields a no-op reporter.
func NewSentryReporter(cfg config.MonitoringConfig) (coremon.Reporter, error) {
	if cfg.DSN == "" {
		return coremon.NopReporter{}, nil
	}
	return newSentryReporter(cfg, nil)
}

func newSentryReporter(cfg config.MonitoringConfig, transport sentry.Transport) (*sentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		Transport:        transport,
	})
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("service", serviceTag)
	return &sentryReporter{hub: sentry.NewHub(client, scope)}, nil
}

type sentryReporter struct {
	hub *sentry.Hub
}

// CaptureError sends err with tags layered over the service tag.
func (r *sentryReporter) CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		r.hub.CaptureException(err)
	})
}

// Recover reports a panic from a run goroutine, then re-panics.
func (r *sentryReporter) Recover() {
	if v := recover(); v != nil {
		r.hub.Recover(v)
		r.hub.Flush(2 * time.Second)
		panic(v)
	}
}

func (r *sentryReporter) Flush(timeout time.Duration) { r.hub.Flush(timeout) }
