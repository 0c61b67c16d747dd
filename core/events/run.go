package events

import (
	"time"

	"github.com/kilianp07/tecsched/core/result"
)

// Phase names a step of a run.
type Phase string

const (
	PhaseStarted Phase = "started"
	PhaseSolved  Phase = "solved"
	PhaseSaved   Phase = "saved"
	PhaseFailed  Phase = "failed"
)

// RunEvent describes one step of an orchestrated run. Result fields are set
// from PhaseSolved on.
type RunEvent struct {
	RunID    string    `json:"run_id"`
	Phase    Phase     `json:"phase"`
	Instance string    `json:"instance"`
	Dataset  string    `json:"dataset,omitempty"`
	Solver   string    `json:"solver"`
	Time     time.Time `json:"time"`

	Status           result.Status `json:"status"`
	TimeLimitReached bool          `json:"time_limit_reached"`
	Objective        *int          `json:"objective,omitempty"`
	LowerBound       *float64      `json:"lower_bound,omitempty"`
	RunningTime      time.Duration `json:"running_time"`
	Error            string        `json:"error,omitempty"`
}

// WithResult copies the outcome fields of r into a copy of e.
func (e RunEvent) WithResult(r *result.Result) RunEvent {
	if r == nil {
		return e
	}
	e.Status = r.Status
	e.TimeLimitReached = r.TimeLimitReached
	e.Objective = r.Objective
	e.LowerBound = r.LowerBound
	e.RunningTime = r.RunningTime
	return e
}
