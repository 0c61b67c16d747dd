package feasibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

func twoMachines(t *testing.T) *instance.Instance {
	t.Helper()
	in := &instance.Instance{
		MachinesCount: 2,
		Jobs: []model.Job{
			{ID: 1, Index: 0, MachineIdx: 0, ProcessingTime: 2},
			{ID: 2, Index: 1, MachineIdx: 0, ProcessingTime: 2},
			{ID: 3, Index: 2, MachineIdx: 1, ProcessingTime: 3},
		},
		LengthInterval:        1,
		OnPowerConsumption:    1,
		OptimalSwitchingCosts: instance.NewTable(11, 11),
	}
	for i := 0; i < 10; i++ {
		in.Intervals = append(in.Intervals, model.Interval{Index: i, Start: i, End: i + 1, EnergyCost: 1})
	}
	for i := 0; i <= 10; i++ {
		for j := i; j <= 10; j++ {
			in.OptimalSwitchingCosts.Set(i, j, 1)
		}
	}
	in.OptimalSwitchingCosts[0][5] = nil
	require.NoError(t, in.Reindex())
	return in
}

func TestCheckFeasible(t *testing.T) {
	in := twoMachines(t)
	rep := Check(in, model.StartTimes{0: 1, 1: 4, 2: 2}, nil)
	require.NoError(t, rep.Err())
	assert.Equal(t, Feasible, rep.Status)
	assert.Equal(t, 12, rep.Cost)

	obj := 15
	assert.Equal(t, Feasible, Check(in, model.StartTimes{0: 1, 1: 4, 2: 2}, &obj).Status)
}

func TestCheckViolations(t *testing.T) {
	in := twoMachines(t)
	low := 11

	tests := []struct {
		name   string
		starts model.StartTimes
		obj    *int
		want   Status
	}{
		{"missing", model.StartTimes{0: 1, 1: 4}, nil, JobHasNoStartTime},
		{"negative", model.StartTimes{0: -1, 1: 4, 2: 2}, nil, JobOutsideHorizon},
		{"past horizon", model.StartTimes{0: 1, 1: 9, 2: 2}, nil, JobOutsideHorizon},
		{"overlap", model.StartTimes{0: 1, 1: 2, 2: 2}, nil, OverlappingOperations},
		{"transition", model.StartTimes{0: 1, 1: 4, 2: 5}, nil, TransitionDoesNotExist},
		{"objective", model.StartTimes{0: 1, 1: 4, 2: 2}, &low, ObjectiveMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rep := Check(in, tc.starts, tc.obj)
			assert.Equal(t, tc.want, rep.Status)
			assert.ErrorIs(t, rep.Err(), ErrInfeasible)
		})
	}
}

func TestCheckOverlapLocatesJobs(t *testing.T) {
	in := twoMachines(t)
	rep := Check(in, model.StartTimes{0: 3, 1: 2, 2: 2}, nil)
	require.Equal(t, OverlappingOperations, rep.Status)
	assert.Equal(t, 0, *rep.Machine)
	assert.Equal(t, 2, rep.Job.ID)
	assert.Equal(t, 1, rep.NextJob.ID)
	assert.Contains(t, rep.Err().Error(), "machine=0")
}
