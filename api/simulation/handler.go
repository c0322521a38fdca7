// Package simulation exposes the session manager over HTTP under /api.
package simulation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kilianp07/solarswarm/app"
	"github.com/kilianp07/solarswarm/core/model"
	"github.com/kilianp07/solarswarm/core/scenario"
)

const maxBody = 1 << 20

// Options tune the router.
type Options struct {
	// Token, when non-empty, is required as a bearer token.
	Token string
	// MaxAgents caps the community size of a request. Zero means no cap.
	MaxAgents int
}

// NewRouter returns the HTTP API backed by sessions.
func NewRouter(sessions *app.SessionManager, opts Options) http.Handler {
	h := &handler{sessions: sessions, opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/simulation/start", h.start)
	mux.HandleFunc("GET /api/simulation/status", h.status)
	mux.HandleFunc("POST /api/simulation/stop", h.stop)
	mux.HandleFunc("GET /api/agents", h.agents)
	mux.HandleFunc("GET /api/agents/{id}", h.agent)
	mux.HandleFunc("GET /api/metrics/community", h.community)
	mux.HandleFunc("GET /api/metrics/history", h.history)
	mux.HandleFunc("POST /api/scenario/run", h.runScenario)
	mux.HandleFunc("GET /api/scenarios", h.scenarios)
	mux.Handle("GET /api/runs", NewRunsHandler(sessions))
	return requireToken(opts.Token, mux)
}

type handler struct {
	sessions *app.SessionManager
	opts     Options
}

// requestBody is the JSON accepted by start and scenario/run. Custom is kept
// raw so that omitted factors default to 1.
type requestBody struct {
	Agents   int             `json:"agents"`
	Hours    int             `json:"hours"`
	Seed     *uint64         `json:"seed"`
	Scenario string          `json:"scenario"`
	Custom   json.RawMessage `json:"custom"`
}

func (h *handler) decodeRequest(r *http.Request) (app.Request, error) {
	var body requestBody
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return app.Request{}, err
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return app.Request{}, fmt.Errorf("decode request: %v: %w", err, model.ErrInvalidArgument)
		}
	}
	if body.Agents < 0 || (h.opts.MaxAgents > 0 && body.Agents > h.opts.MaxAgents) {
		return app.Request{}, fmt.Errorf("agents %d: %w", body.Agents, model.ErrInvalidArgument)
	}
	req := app.Request{Agents: body.Agents, Hours: body.Hours, Seed: body.Seed}
	if len(body.Custom) > 0 && string(body.Custom) != "null" {
		sc, err := scenario.Decode(bytes.NewReader(body.Custom), "json")
		if err != nil {
			return app.Request{}, fmt.Errorf("%v: %w", err, model.ErrInvalidArgument)
		}
		req.Custom = &sc
		return req, nil
	}
	if filepathLike(body.Scenario) {
		// files on the server are not reachable from the API
		return app.Request{}, fmt.Errorf("scenario %q: %w", body.Scenario, model.ErrInvalidArgument)
	}
	req.Scenario = body.Scenario
	return req, nil
}

func filepathLike(ref string) bool {
	return strings.ContainsAny(ref, "./\\")
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := h.sessions.Start(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Status())
}

func (h *handler) stop(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Stop(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// agentView adds the surplus/deficit status to a snapshot.
type agentView struct {
	model.AgentSnapshot
	Status string `json:"status"`
}

func (h *handler) agents(w http.ResponseWriter, _ *http.Request) {
	snaps, err := h.sessions.Agents()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]agentView, len(snaps))
	for i, s := range snaps {
		out[i] = agentView{AgentSnapshot: s, Status: s.Status()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) agent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, fmt.Errorf("agent id %q: %w", r.PathValue("id"), model.ErrInvalidArgument))
		return
	}
	s, err := h.sessions.Agent(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agentView{AgentSnapshot: s, Status: s.Status()})
}

func (h *handler) community(w http.ResponseWriter, _ *http.Request) {
	kpi, err := h.sessions.CommunityKPI()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	hours := 0
	if s := r.URL.Query().Get("hours"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("hours %q: %w", s, model.ErrInvalidArgument))
			return
		}
		hours = n
	}
	series, err := h.sessions.History(hours)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *handler) runScenario(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := h.sessions.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handler) scenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, scenario.Presets())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, app.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, model.ErrUndefinedMetric):
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
