package results

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/events"
	"github.com/kilianp07/tecsched/core/result"
)

func fixture(t *testing.T) (*Handler, archive.Key) {
	t.Helper()
	dir := t.TempDir()
	store := archive.NewFileStore(archive.Layout{Root: dir})
	idx, err := archive.NewSQLiteIndex(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	journal, err := archive.NewJournal(filepath.Join(dir, "runs.jsonl"), 1, 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	obj := 21
	k := archive.Key{Prescription: "p", Dataset: "d", SolverID: "fo", Instance: "a.json"}
	res := &result.Result{
		Status:         result.Heuristic,
		Objective:      &obj,
		RunningTime:    2 * time.Second,
		StartTimes:     map[int]int{0: 2},
		AdditionalInfo: map[string]any{"RunId": "run-1"},
	}
	require.NoError(t, archive.Tee{store, idx}.Save(context.Background(), k, res))
	require.NoError(t, journal.Record(events.RunEvent{RunID: "run-1", Phase: events.PhaseSaved, Time: time.Now()}))

	return &Handler{Index: idx, Loader: store, Journal: journal, Token: "tok"}, k
}

func get(t *testing.T, h http.Handler, path string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth {
		req.Header.Set("Authorization", "Bearer tok")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListResults(t *testing.T) {
	h, k := fixture(t)
	router := NewRouter(h)

	rr := get(t, router, "/api/results?dataset=d&status=Heuristic", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []archive.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, k, entries[0].Key)
	assert.Equal(t, "run-1", entries[0].RunID)

	rr = get(t, router, "/api/results?status=1", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = get(t, router, "/api/results?status=bogus", true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetResult(t *testing.T) {
	h, _ := fixture(t)
	router := NewRouter(h)

	rr := get(t, router, "/api/results/p/d/fo/a.json", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, 21, body["Objective"])

	rr = get(t, router, "/api/results/p/d/fo/missing.json", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRunEvents(t *testing.T) {
	h, _ := fixture(t)
	router := NewRouter(h)

	rr := get(t, router, "/api/runs/run-1/events", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var evs []events.RunEvent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &evs))
	require.Len(t, evs, 1)
	assert.Equal(t, events.PhaseSaved, evs[0].Phase)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/runs/other/events", true).Code)

	h.Journal = nil
	assert.Equal(t, http.StatusNotFound, get(t, NewRouter(h), "/api/runs/run-1/events", true).Code)
}

func TestAuthAndHealth(t *testing.T) {
	h, _ := fixture(t)
	router := NewRouter(h)

	assert.Equal(t, http.StatusUnauthorized, get(t, router, "/api/results", false).Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/healthz", false).Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/metrics", false).Code)
}
