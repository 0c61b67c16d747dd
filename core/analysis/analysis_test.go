package analysis

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/result"
)

func intp(v int) *int { return &v }

func setup(t *testing.T, instances map[string]int) *archive.FileStore {
	t.Helper()
	store := archive.NewFileStore(archive.Layout{Root: t.TempDir()})
	dir := store.Layout().DatasetDir("ds")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, n := range instances {
		body := fmt.Sprintf(`{"MachinesCount":1,"Jobs":[{"Id":1,"Index":0,"MachineIdx":0,"ProcessingTime":1}],"Metadata":{"JobsCount":%d}}`, n)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return store
}

func save(t *testing.T, store *archive.FileStore, solver, inst string, st result.Status, obj int, rt time.Duration) {
	t.Helper()
	r := &result.Result{Status: st, RunningTime: rt}
	if st.IsFeasible() {
		r.Objective = intp(obj)
	}
	k := archive.Key{Prescription: "p", Dataset: "ds", SolverID: solver, Instance: inst}
	require.NoError(t, store.Save(context.Background(), k, r))
}

func TestBuildTable(t *testing.T) {
	store := setup(t, map[string]int{"a.json": 5, "b.json": 10})
	save(t, store, "exact", "a.json", result.Optimal, 100, 2*time.Second)
	save(t, store, "heur", "a.json", result.Heuristic, 110, time.Second)
	save(t, store, "exact", "b.json", result.NoSolution, 0, 4*time.Second)

	rep, err := Build(context.Background(), store, "p", "ds")
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "heur"}, rep.Solvers)
	require.Len(t, rep.Rows, 2)
	assert.Nil(t, rep.Rows[1].Cells["heur"])

	var buf bytes.Buffer
	require.NoError(t, rep.WriteCSV(&buf))
	assert.Equal(t, "Instance,Time/exact,Time/heur\na.json,2,1\nb.json,4,\n", buf.String())

	sums := rep.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, SolverSummary{Solver: "exact", Results: 2, Optimal: 1, MeanTime: 3, StdTime: sums[0].StdTime}, sums[0])
	assert.InDelta(t, 1.4142, sums[0].StdTime, 1e-3)
	assert.Equal(t, 1, sums[1].Heuristic)

	optima, err := rep.Optima()
	require.NoError(t, err)
	assert.Equal(t, map[string]Optimum{"a.json": {Solver: "exact", Objective: 100}}, optima)
}

func TestBuildConflictingOptima(t *testing.T) {
	store := setup(t, map[string]int{"a.json": 5})
	save(t, store, "s1", "a.json", result.Optimal, 100, time.Second)
	save(t, store, "s2", "a.json", result.Optimal, 105, time.Second)

	_, err := Build(context.Background(), store, "p", "ds")
	assert.ErrorIs(t, err, ErrConflictingOptima)
}

func TestBuildHeuristicBelowOptimum(t *testing.T) {
	store := setup(t, map[string]int{"a.json": 5})
	save(t, store, "exact", "a.json", result.Optimal, 100, time.Second)
	save(t, store, "heur", "a.json", result.Heuristic, 99, time.Second)

	_, err := Build(context.Background(), store, "p", "ds")
	assert.ErrorIs(t, err, ErrHeuristicBelowOptimum)
}

func TestGroupByMetadata(t *testing.T) {
	rows := []Row{
		{Instance: "a", Metadata: map[string]any{"JobsCount": 10, "Seed": 1}},
		{Instance: "b", Metadata: map[string]any{"JobsCount": 5, "Seed": 2}},
		{Instance: "c", Metadata: map[string]any{"JobsCount": 10, "Seed": 3}},
		{Instance: "d", Metadata: map[string]any{}},
	}
	groups := GroupByMetadata(rows, []string{"JobsCount"})
	require.Len(t, groups, 3)
	assert.Equal(t, map[string]any{"JobsCount": 10}, groups[0].Params)
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "b", groups[1].Rows[0].Instance)
	assert.Empty(t, groups[2].Params)
}
