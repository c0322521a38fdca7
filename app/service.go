// Package app wires configuration, sinks, the run log and the session
// manager into a long-running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/solarswarm/config"
	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
	coremon "github.com/kilianp07/solarswarm/core/monitoring"
	"github.com/kilianp07/solarswarm/core/runlog"
	"github.com/kilianp07/solarswarm/infra/logger"
	"github.com/kilianp07/solarswarm/infra/metrics"
	"github.com/kilianp07/solarswarm/infra/monitoring"
	"github.com/kilianp07/solarswarm/internal/eventbus"
)

// Service owns the sinks, the run log and the session manager.
type Service struct {
	Sessions *SessionManager
	cfg      *config.Config
	sink     coremetrics.MetricsSink
	store    runlog.Store
	bus      *eventbus.Bus[eventbus.Event]
	report   coremon.Reporter
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	report, err := monitoring.NewSentryReporter(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		_ = coremetrics.Close(sink)
		return nil, fmt.Errorf("run log: %w", err)
	}
	bus := eventbus.New()
	sessions := NewSessionManager(cfg.Simulation, cfg.Economics.Params(), sink, bus, store, logger.New("simulation"))
	sessions.SetReporter(report)
	return &Service{Sessions: sessions, cfg: cfg, sink: sink, store: store, bus: bus, report: report, log: logg}, nil
}

// Events returns the bus carrying tick and run events.
func (s *Service) Events() eventbus.EventBus { return s.bus }

// Run serves handler on the configured API address, plus /metrics when a
// Prometheus address is set, until the context is cancelled.
func (s *Service) Run(ctx context.Context, handler http.Handler) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("api listening on %s", s.cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.API.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops running sessions and releases the sinks, the bus and the
// run log.
func (s *Service) Close() error {
	s.Sessions.Close()
	s.bus.Close()
	s.report.Flush(2 * time.Second)
	return errors.Join(coremetrics.Close(s.sink), s.store.Close())
}
