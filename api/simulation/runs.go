package simulation

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kilianp07/solarswarm/app"
	"github.com/kilianp07/solarswarm/core/model"
	"github.com/kilianp07/solarswarm/core/runlog"
)

// NewRunsHandler lists finished runs via GET /api/runs. It accepts start and
// end (RFC3339), scenario, run_id and limit query parameters. Malformed
// values are rejected with 400.
func NewRunsHandler(sessions *app.SessionManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, err := parseRunsQuery(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		records, err := sessions.Runs(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		if records == nil {
			records = []runlog.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

func parseRunsQuery(v url.Values) (runlog.Query, error) {
	q := runlog.Query{Scenario: v.Get("scenario"), RunID: v.Get("run_id")}
	for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		s := v.Get(name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return runlog.Query{}, fmt.Errorf("%s %q: %w", name, s, model.ErrInvalidArgument)
		}
		*dst = t
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return runlog.Query{}, fmt.Errorf("limit %q: %w", s, model.ErrInvalidArgument)
		}
		q.Limit = n
	}
	return q, nil
}

// requireToken rejects requests lacking "Bearer <token>" when token is set.
func requireToken(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
