// Package feasibility verifies a schedule against an instance before it is
// trusted or persisted.
package feasibility

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

// Status is the verdict of a check. Values are stable.
type Status int

const (
	Unknown Status = iota
	Feasible
	JobHasNoStartTime
	OverlappingOperations
	JobOutsideHorizon
	TransitionDoesNotExist
	ObjectiveMismatch
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "Unknown"
	case Feasible:
		return "Feasible"
	case JobHasNoStartTime:
		return "JobHasNoStartTime"
	case OverlappingOperations:
		return "OverlappingOperations"
	case JobOutsideHorizon:
		return "JobOutsideHorizon"
	case TransitionDoesNotExist:
		return "TransitionDoesNotExist"
	case ObjectiveMismatch:
		return "ObjectiveMismatch"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrInfeasible is wrapped by Report.Err for every status but Feasible.
var ErrInfeasible = errors.New("infeasible schedule")

// Report describes the first violation found.
type Report struct {
	Status Status
	// Machine, Job and NextJob locate the violation when relevant.
	Machine *int
	Job     *model.Job
	NextJob *model.Job
	// Cost is the total energy cost of a schedule whose transitions exist.
	Cost int
}

// Err returns nil for a feasible report.
func (r Report) Err() error {
	if r.Status == Feasible {
		return nil
	}
	msg := r.Status.String()
	if r.Job != nil {
		msg += fmt.Sprintf(" job=%d", r.Job.ID)
	}
	if r.NextJob != nil {
		msg += fmt.Sprintf(" next=%d", r.NextJob.ID)
	}
	if r.Machine != nil {
		msg += fmt.Sprintf(" machine=%d", *r.Machine)
	}
	return fmt.Errorf("%w: %s", ErrInfeasible, msg)
}

// Check verifies that every job is placed inside the horizon without
// overlapping another job of its machine, that all required transitions
// exist and, when objective is set, that it is not below the schedule cost.
// A reported objective above the cost is accepted since some formulations
// do not switch optimally between jobs.
func Check(in *instance.Instance, starts model.StartTimes, objective *int) Report {
	for _, j := range in.Jobs {
		if !starts.Has(j) {
			j := j
			return Report{Status: JobHasNoStartTime, Job: &j}
		}
	}
	horizon := len(in.Intervals)
	for _, j := range in.Jobs {
		s := starts[j.Index]
		if s < 0 || s+j.ProcessingTime > horizon {
			j := j
			return Report{Status: JobOutsideHorizon, Job: &j}
		}
	}
	for m := 0; m < in.MachinesCount; m++ {
		jobs := append([]model.Job(nil), in.MachineJobs(m)...)
		sort.SliceStable(jobs, func(a, b int) bool { return starts[jobs[a].Index] < starts[jobs[b].Index] })
		for k := 0; k+1 < len(jobs); k++ {
			cur, next := jobs[k], jobs[k+1]
			if starts[cur.Index]+cur.ProcessingTime > starts[next.Index] {
				m := m
				return Report{Status: OverlappingOperations, Machine: &m, Job: &cur, NextJob: &next}
			}
		}
	}
	cost, err := in.TotalEnergyCost(starts)
	if err != nil {
		return Report{Status: TransitionDoesNotExist}
	}
	if objective != nil && *objective < cost {
		return Report{Status: ObjectiveMismatch, Cost: cost}
	}
	return Report{Status: Feasible, Cost: cost}
}
