package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solarswarm/config"
	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/environment"
	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/metrics/community"
	"github.com/kilianp07/solarswarm/core/model"
	"github.com/kilianp07/solarswarm/core/monitoring"
	"github.com/kilianp07/solarswarm/core/runlog"
	"github.com/kilianp07/solarswarm/core/scenario"
	"github.com/kilianp07/solarswarm/core/swarm"
	"github.com/kilianp07/solarswarm/infra/logger"
	"github.com/kilianp07/solarswarm/internal/eventbus"
)

// ErrBusy is returned when a run is requested while another one is running.
var ErrBusy = errors.New("a simulation is already running")

// Request describes a run. Zero fields fall back to the simulation config.
type Request struct {
	Agents int `json:"agents"`
	Hours  int `json:"hours"`
	// Seed fixes the random source. Nil draws a fresh seed.
	Seed *uint64 `json:"seed,omitempty"`
	// Scenario is a preset name or a scenario file path.
	Scenario string `json:"scenario,omitempty"`
	// Custom overrides Scenario when set.
	Custom *scenario.Scenario `json:"custom,omitempty"`
}

// Status reports the current run.
type Status struct {
	RunID     string    `json:"run_id,omitempty"`
	State     string    `json:"state"`
	Hour      int       `json:"current_hour"`
	Hours     int       `json:"total_hours"`
	Agents    int       `json:"agents"`
	Scenario  string    `json:"scenario,omitempty"`
	Seed      uint64    `json:"seed"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Report is the outcome of a finished run.
type Report struct {
	RunID    string            `json:"run_id"`
	Scenario scenario.Scenario `json:"scenario"`
	Seed     uint64            `json:"seed"`
	Summary  swarm.Summary     `json:"summary"`
	// KPI is nil when the run consumed no energy.
	KPI       *community.KPI `json:"community,omitempty"`
	Cancelled bool           `json:"cancelled"`
}

// Session is one simulation and the goroutine driving it.
type Session struct {
	sim       *swarm.Simulation
	scenario  scenario.Scenario
	seed      uint64
	hours     int
	memory    *coremetrics.MemorySink
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
}

// Simulation returns the simulation driven by the session.
func (s *Session) Simulation() *swarm.Simulation { return s.sim }

// Done is closed when the run ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the run error once Done is closed.
func (s *Session) Err() error {
	if !s.finished() {
		return nil
	}
	return s.err
}

func (s *Session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// SessionManager owns at most one live simulation at a time and records
// finished runs in the run log.
type SessionManager struct {
	mu       sync.Mutex
	cfg      config.SimulationConfig
	econ     community.Params
	sink     coremetrics.MetricsSink
	bus      eventbus.EventBus
	store    runlog.Store
	log      logger.Logger
	reporter monitoring.Reporter
	now      func() time.Time
	current  *Session
	wg       sync.WaitGroup
}

// NewSessionManager wires the manager. Nil sink, store, bus or logger are
// replaced by no-op implementations.
func NewSessionManager(cfg config.SimulationConfig, econ community.Params, sink coremetrics.MetricsSink,
	bus eventbus.EventBus, store runlog.Store, log logger.Logger) *SessionManager {
	cfg.SetDefaults()
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if store == nil {
		store = runlog.NopStore{}
	}
	return &SessionManager{cfg: cfg, econ: econ, sink: sink, bus: bus, store: store, log: logger.OrNop(log), reporter: monitoring.NopReporter{}, now: time.Now}
}

// SetReporter routes run log failures and run panics to r.
func (m *SessionManager) SetReporter(r monitoring.Reporter) {
	if r == nil {
		r = monitoring.NopReporter{}
	}
	m.mu.Lock()
	m.reporter = r
	m.mu.Unlock()
}

// Start builds a simulation for req and runs it in the background. The run
// outlives ctx; use Stop to cancel it.
func (m *SessionManager) Start(ctx context.Context, req Request) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && !m.current.finished() {
		return Status{}, ErrBusy
	}
	sess, err := m.prepare(req)
	if err != nil {
		return Status{}, err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess.cancel = cancel
	m.current = sess
	sess.hours = m.hours(req, sess.scenario)
	src := environment.NewSource(sess.seed + 1)
	st := statusOf(sess)
	reporter := m.reporter

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		defer reporter.Recover()
		_, err := sess.sim.Run(runCtx, sess.hours, src)
		sess.err = err
		m.record(sess)
		close(sess.done)
	}()
	return st, nil
}

// Run executes req synchronously and returns its report. It does not replace
// the session visible through Status.
func (m *SessionManager) Run(ctx context.Context, req Request) (Report, error) {
	m.mu.Lock()
	sess, err := m.prepare(req)
	m.mu.Unlock()
	if err != nil {
		return Report{}, err
	}
	sess.cancel = func() {}
	sess.hours = m.hours(req, sess.scenario)
	_, err = sess.sim.Run(ctx, sess.hours, environment.NewSource(sess.seed+1))
	sess.err = err
	m.record(sess)
	close(sess.done)
	return m.report(sess), err
}

func (m *SessionManager) prepare(req Request) (*Session, error) {
	agents := req.Agents
	if agents == 0 {
		agents = m.cfg.Agents
	}
	if req.Hours < 0 {
		return nil, fmt.Errorf("hours %d: %w", req.Hours, model.ErrInvalidArgument)
	}
	sc, err := m.resolve(req)
	if err != nil {
		return nil, err
	}
	var seed uint64
	if req.Seed != nil {
		seed = *req.Seed
	} else if m.cfg.Seed != 0 {
		seed = m.cfg.Seed
	} else {
		seed = rand.Uint64()
	}

	mem := coremetrics.NewMemorySink()
	sim, err := swarm.New(agents,
		swarm.WithRunID(uuid.NewString()),
		swarm.WithScenario(sc.Name),
		swarm.WithBatteryCapacity(m.cfg.BatteryCapacity),
		swarm.WithNeighborWindow(m.cfg.Window()),
		swarm.WithNoiseStdDev(m.cfg.Noise()),
		swarm.WithRetainInbox(m.cfg.RetainInbox),
		swarm.WithMetrics(coremetrics.NewMultiSink(mem, m.sink)),
		swarm.WithEventBus(m.bus),
		swarm.WithLogger(m.log),
	)
	if err != nil {
		return nil, err
	}
	if err := sim.Modify(func(agents []*agent.Agent) error {
		return sc.Apply(agents, environment.NewSource(seed))
	}); err != nil {
		return nil, fmt.Errorf("apply scenario %s: %w", sc.Name, err)
	}
	return &Session{
		sim:       sim,
		scenario:  sc,
		seed:      seed,
		memory:    mem,
		startedAt: m.now(),
		done:      make(chan struct{}),
	}, nil
}

func (m *SessionManager) resolve(req Request) (scenario.Scenario, error) {
	if req.Custom != nil {
		sc := *req.Custom
		if sc.Name == "" {
			sc.Name = scenario.Custom
		}
		if err := sc.Validate(); err != nil {
			return scenario.Scenario{}, err
		}
		return sc, nil
	}
	ref := req.Scenario
	if ref == "" {
		ref = m.cfg.Scenario
	}
	return scenario.Resolve(ref)
}

func (m *SessionManager) hours(req Request, sc scenario.Scenario) int {
	if req.Hours > 0 {
		return req.Hours
	}
	if sc.Hours > 0 {
		return sc.Hours
	}
	return m.cfg.Hours
}

func (m *SessionManager) record(sess *Session) {
	sum, err := sess.sim.Results().Summary()
	if err != nil && !errors.Is(err, model.ErrUndefinedMetric) {
		m.log.Errorf("summary of run %s: %v", sess.sim.ID(), err)
	}
	rec := runlog.Record{
		RunID:      sess.sim.ID(),
		Scenario:   sess.scenario.Name,
		Agents:     sess.sim.Size(),
		Hours:      sess.hours,
		Seed:       sess.seed,
		StartedAt:  sess.startedAt,
		FinishedAt: m.now(),
		Cancelled:  sess.err != nil,
		Summary:    sum,
		Series:     sess.sim.Results().Series(),
	}
	if err := m.store.Append(context.Background(), rec); err != nil {
		m.log.Errorf("run log append %s: %v", rec.RunID, err)
		m.mu.Lock()
		reporter := m.reporter
		m.mu.Unlock()
		reporter.CaptureError(err, map[string]string{"run_id": rec.RunID, "component": "runlog"})
	}
}

func (m *SessionManager) report(sess *Session) Report {
	sum, _ := sess.sim.Results().Summary()
	rep := Report{
		RunID:     sess.sim.ID(),
		Scenario:  sess.scenario,
		Seed:      sess.seed,
		Summary:   sum,
		Cancelled: sess.Err() != nil,
	}
	if kpi, err := community.Compute(sess.memory.Totals(), m.econ); err == nil {
		rep.KPI = &kpi
	}
	return rep
}

// Status reports the current session, or the idle state when none exists.
func (m *SessionManager) Status() Status {
	m.mu.Lock()
	sess := m.current
	m.mu.Unlock()
	if sess == nil {
		return Status{State: swarm.StateIdle.String(), Hours: m.cfg.Hours, Agents: m.cfg.Agents}
	}
	return statusOf(sess)
}

func statusOf(sess *Session) Status {
	state := sess.sim.State()
	if state == swarm.StateIdle && sess.cancel != nil && !sess.finished() {
		// started but the goroutine has not entered Run yet
		state = swarm.StateRunning
	}
	st := Status{
		RunID:     sess.sim.ID(),
		State:     state.String(),
		Hour:      sess.sim.Hour(),
		Hours:     sess.hours,
		Agents:    sess.sim.Size(),
		Scenario:  sess.scenario.Name,
		Seed:      sess.seed,
		StartedAt: sess.startedAt,
	}
	if err := sess.Err(); err != nil {
		st.Error = err.Error()
	}
	return st
}

// Stop cancels the running session and waits for it to finish.
func (m *SessionManager) Stop(ctx context.Context) (Status, error) {
	m.mu.Lock()
	sess := m.current
	m.mu.Unlock()
	if sess == nil || sess.finished() {
		return Status{}, fmt.Errorf("stop: no running simulation: %w", model.ErrInvalidState)
	}
	sess.cancel()
	select {
	case <-sess.done:
	case <-ctx.Done():
		return statusOf(sess), ctx.Err()
	}
	return statusOf(sess), nil
}

// Current returns the latest session.
func (m *SessionManager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, fmt.Errorf("simulation: %w", model.ErrNotFound)
	}
	return m.current, nil
}

// Agents returns snapshots of the current session's agents.
func (m *SessionManager) Agents() ([]model.AgentSnapshot, error) {
	sess, err := m.Current()
	if err != nil {
		return nil, err
	}
	return sess.sim.Agents(), nil
}

// Agent returns one agent snapshot of the current session.
func (m *SessionManager) Agent(id int) (model.AgentSnapshot, error) {
	sess, err := m.Current()
	if err != nil {
		return model.AgentSnapshot{}, err
	}
	return sess.sim.Agent(id)
}

// History returns the last hours entries of the current session. A
// non-positive hours returns the full series.
func (m *SessionManager) History(hours int) (swarm.Series, error) {
	sess, err := m.Current()
	if err != nil {
		return swarm.Series{}, err
	}
	res := sess.sim.Results()
	if hours <= 0 {
		return res.Series(), nil
	}
	return res.Last(hours), nil
}

// CommunityKPI computes the community report from the ticks recorded so far.
func (m *SessionManager) CommunityKPI() (community.KPI, error) {
	sess, err := m.Current()
	if err != nil {
		return community.KPI{}, err
	}
	return community.Compute(sess.memory.Totals(), m.econ)
}

// Report returns the report of the current session.
func (m *SessionManager) Report() (Report, error) {
	sess, err := m.Current()
	if err != nil {
		return Report{}, err
	}
	return m.report(sess), nil
}

// Runs lists finished runs from the run log.
func (m *SessionManager) Runs(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return m.store.Query(ctx, q)
}

// Close cancels any running session and waits for background runs.
func (m *SessionManager) Close() {
	m.mu.Lock()
	if m.current != nil && m.current.cancel != nil {
		m.current.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}
