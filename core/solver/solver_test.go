package solver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tecsched/core/model"
	"github.com/kilianp07/tecsched/core/result"
)

func TestBudgetNeverBelowOneSecond(t *testing.T) {
	assert.Equal(t, 50*time.Second, Budget(time.Minute, 10*time.Second))
	assert.Equal(t, time.Second, Budget(time.Minute, 2*time.Minute))
	assert.Equal(t, time.Second, Budget(time.Second, 900*time.Millisecond))
}

func TestEngineOptions(t *testing.T) {
	cfg := Config{
		TimeLimit:              result.Duration(30 * time.Second),
		StopOnFeasibleSolution: true,
		NumWorkers:             4,
		PresolveLevel:          PresolveOff,
	}
	got := cfg.EngineOptions(5 * time.Second)
	assert.Equal(t, EngineOptions{TimeLimit: 25 * time.Second, Workers: 4, Presolve: PresolveOff, SolutionLimit: 1}, got)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadConfigJSON(t *testing.T) {
	p := writeFile(t, "config.json", `{
		"TimeLimit": "0:1:30",
		"StopOnFeasibleSolution": false,
		"NumWorkers": 2,
		"PresolveLevel": 1,
		"InitStartTimes": [{"JobIndex": 0, "StartTime": 3}]
	}`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.TimeLimit.Std())
	assert.Equal(t, PresolveConservative, cfg.PresolveLevel)
	assert.Equal(t, []model.IndexedStartTime{{JobIndex: 0, StartTime: 3}}, cfg.InitStartTimes)
}

func TestLoadConfigYAML(t *testing.T) {
	p := writeFile(t, "config.yaml", "TimeLimit: \"1 days, 0:00:00\"\nNumWorkers: 1\nPresolveLevel: -1\nInitStartTimes: null\n")
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.TimeLimit.Std())
	assert.Nil(t, cfg.InitStartTimes)
}

func TestLoadConfigRejects(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "bad.json", `{"TimeLimit": "90s"}`))
	assert.ErrorIs(t, err, result.ErrBadDuration)

	_, err = LoadConfig(writeFile(t, "bad2.json", `{"TimeLimit": "0:0:10", "PresolveLevel": 5}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.TimeLimit = 0
	assert.NoError(t, cfg.Validate())
	cfg.TimeLimit = result.Duration(-time.Second)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadSpecialized(t *testing.T) {
	conf, err := LoadSpecialized(writeFile(t, "s.json", `{"RelaxedJobsOrdering": true}`))
	require.NoError(t, err)
	assert.Equal(t, true, conf["RelaxedJobsOrdering"])

	conf, err = LoadSpecialized("")
	require.NoError(t, err)
	assert.Empty(t, conf)
}

type stubSolver struct{}

func (stubSolver) Initialize(context.Context, Input) error    { return nil }
func (stubSolver) Solve(context.Context, EngineOptions) error { return nil }
func (stubSolver) Starts() model.StartTimes                   { return nil }
func (stubSolver) Outcome() Outcome                           { return Outcome{} }

func TestRegistry(t *testing.T) {
	require.NoError(t, Register("stub-test", func(map[string]any) (Solver, error) { return stubSolver{}, nil }))
	s, err := New("stub-test", nil)
	require.NoError(t, err)
	assert.IsType(t, stubSolver{}, s)
	assert.Contains(t, Names(), "stub-test")

	_, err = New("missing", nil)
	assert.Error(t, err)
}
