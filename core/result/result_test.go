package result

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1 days, 02:03:04": 93784 * time.Second,
		"1 day, 0:00:01":   24*time.Hour + time.Second,
		"0:0:5":            5 * time.Second,
		"12:30:00":         12*time.Hour + 30*time.Minute,
		"0:00:01.250000":   1250 * time.Millisecond,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "5s", "1:2", "x days, 1:2:3", "1 days,1:2:3"} {
		_, err := ParseDuration(in)
		assert.ErrorIs(t, err, ErrBadDuration, in)
	}
}

func TestParseDurationRejectsOverflow(t *testing.T) {
	for _, in := range []string{
		"99999999999999999999:0:0",
		"0:99999999999999999999:0",
		"99999999999999999999 days, 0:0:0",
		"200000 days, 0:0:0",
	} {
		_, err := ParseDuration(in)
		assert.ErrorIs(t, err, ErrBadDuration, in)
	}
}

func TestFormatDurationRoundsUp(t *testing.T) {
	assert.Equal(t, "0:0:2", FormatDuration(1100*time.Millisecond))
	assert.Equal(t, "26:3:4", FormatDuration(93784*time.Second))
	assert.Equal(t, "0:0:0", FormatDuration(0))
}

func TestResultRoundTrip(t *testing.T) {
	lb := 99.5
	obj := 105
	ttb := 1500 * time.Millisecond
	in := Result{
		Status:           Heuristic,
		TimeLimitReached: true,
		RunningTime:      3*time.Second + 200*time.Millisecond,
		StartTimes:       model.StartTimes{1: 4, 0: 7},
		LowerBound:       &lb,
		Objective:        &obj,
		TimeToBest:       &ttb,
		AdditionalInfo:   map[string]any{"NumNodes": 12.0},
	}
	var buf bytes.Buffer
	require.NoError(t, in.Encode(&buf))
	assert.Contains(t, buf.String(), `"RunningTime":"0:0:4"`)
	assert.Contains(t, buf.String(), `"StartTimes":[{"JobIndex":0,"StartTime":7},{"JobIndex":1,"StartTime":4}]`)

	out, err := Decode(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, *in.Objective, *out.Objective)
	assert.Equal(t, *in.LowerBound, *out.LowerBound)
	assert.Equal(t, in.StartTimes, out.StartTimes)
	assert.Equal(t, 4*time.Second, out.RunningTime)
	assert.Equal(t, 2*time.Second, *out.TimeToBest)
	assert.Equal(t, in.AdditionalInfo, out.AdditionalInfo)
	assert.True(t, out.HasObjective())
}

func TestDecodeNullOptionals(t *testing.T) {
	raw := `{"Status":0,"TimeLimitReached":false,"RunningTime":"0:1:0","LowerBound":null,` +
		`"Objective":null,"AdditionalInfo":null,"StartTimes":null}`
	out, err := Decode(strings.NewReader(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, NoSolution, out.Status)
	assert.Nil(t, out.StartTimes)
	assert.Nil(t, out.Objective)
	assert.Nil(t, out.TimeToBest)
	assert.False(t, out.HasObjective())
}

func TestDecodeChecksJobsAgainstInstance(t *testing.T) {
	inst := &instance.Instance{
		MachinesCount: 1,
		Jobs:          []model.Job{{ID: 1, Index: 0, ProcessingTime: 1}},
	}
	require.NoError(t, inst.Reindex())

	raw := `{"Status":3,"RunningTime":"0:0:1","Objective":10,"StartTimes":[{"JobIndex":3,"StartTime":2}]}`
	_, err := Decode(strings.NewReader(raw), inst)
	assert.ErrorIs(t, err, ErrUnknownJob)

	_, err = Decode(strings.NewReader(`{"Status":9,"RunningTime":"0:0:1"}`), nil)
	assert.Error(t, err)
}

func TestStatusWireValues(t *testing.T) {
	assert.Equal(t, 0, int(NoSolution))
	assert.Equal(t, 1, int(Optimal))
	assert.Equal(t, 2, int(Infeasible))
	assert.Equal(t, 3, int(Heuristic))
	assert.Equal(t, "Heuristic", Heuristic.String())
	assert.True(t, Optimal.IsFeasible())
	assert.False(t, Infeasible.IsFeasible())
}
