// Package results serves the result archive over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /api/results                                         index entries, filtered by query
//	GET /api/results/{prescription}/{dataset}/{solver}/{instance}   stored result
//	GET /api/runs/{runID}/events                             journaled run events
//	GET /metrics                                             Prometheus metrics
package results

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/events"
	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/result"
	"github.com/kilianp07/tecsched/infra/logger"
)

// Index answers summary queries.
type Index interface {
	Query(ctx context.Context, f archive.Filter) ([]archive.Entry, error)
}

// Loader reads full results.
type Loader interface {
	Load(ctx context.Context, k archive.Key, inst *instance.Instance) (*result.Result, error)
}

// EventReader reads journaled run events.
type EventReader interface {
	Events(runID string) ([]events.RunEvent, error)
}

// Handler holds the collaborators of the API. Index and Loader are required;
// Journal may be nil, in which case run events are not served.
type Handler struct {
	Index   Index
	Loader  Loader
	Journal EventReader
	// Token, when set, is required as a bearer token on /api routes.
	Token string
	Log   logger.Logger
}

// NewRouter returns the chi router serving the API.
func NewRouter(h *Handler) http.Handler {
	if h.Log == nil {
		h.Log = logger.NopLogger{}
	}
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(h.Token))
		r.Get("/results", h.listResults)
		r.Get("/results/{prescription}/{dataset}/{solver}/{instance}", h.getResult)
		r.Get("/runs/{runID}/events", h.runEvents)
	})
	return r
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := archive.Filter{
		Prescription: q.Get("prescription"),
		Dataset:      q.Get("dataset"),
		SolverID:     q.Get("solver"),
		Instance:     q.Get("instance"),
	}
	if s := q.Get("status"); s != "" {
		st, err := parseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = &st
	}
	entries, err := h.Index.Query(r.Context(), f)
	if err != nil {
		h.Log.Errorf("query index: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to query results")
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	k := archive.Key{
		Prescription: chi.URLParam(r, "prescription"),
		Dataset:      chi.URLParam(r, "dataset"),
		SolverID:     chi.URLParam(r, "solver"),
		Instance:     chi.URLParam(r, "instance"),
	}
	if err := k.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.Loader.Load(r.Context(), k, nil)
	if errors.Is(err, archive.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.Log.Errorf("load %s: %v", k, err)
		writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := res.Encode(w); err != nil {
		h.Log.Errorf("encode %s: %v", k, err)
	}
}

func (h *Handler) runEvents(w http.ResponseWriter, r *http.Request) {
	if h.Journal == nil {
		writeError(w, http.StatusNotFound, "run journal disabled")
		return
	}
	evs, err := h.Journal.Events(chi.URLParam(r, "runID"))
	if err != nil {
		h.Log.Errorf("read journal: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read run events")
		return
	}
	if len(evs) == 0 {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

// parseStatus accepts the integer or the name of a status.
func parseStatus(s string) (result.Status, error) {
	if n, err := strconv.Atoi(s); err == nil {
		st := result.Status(n)
		if st.Valid() {
			return st, nil
		}
	}
	for st := result.NoSolution; st <= result.Heuristic; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, errors.New("unknown status " + strconv.Quote(s))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
