// Package result holds the outcome of a solve run and its persisted form.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

// ErrUnknownJob is returned when a persisted start time refers to a job the
// instance does not have.
var ErrUnknownJob = errors.New("start time for unknown job")

// Result is the outcome of one solve attempt. Optional fields are nil when
// the solver did not report them.
type Result struct {
	Status           Status
	TimeLimitReached bool
	RunningTime      time.Duration
	StartTimes       model.StartTimes
	LowerBound       *float64
	Objective        *int
	TimeToBest       *time.Duration
	AdditionalInfo   map[string]any
}

type wireResult struct {
	Status           Status                   `json:"Status"`
	TimeLimitReached bool                     `json:"TimeLimitReached"`
	RunningTime      Duration                 `json:"RunningTime"`
	LowerBound       *float64                 `json:"LowerBound"`
	Objective        *float64                 `json:"Objective"`
	AdditionalInfo   map[string]any           `json:"AdditionalInfo"`
	TimeToBest       *Duration                `json:"TimeToBest"`
	StartTimes       []model.IndexedStartTime `json:"StartTimes"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{
		Status:           r.Status,
		TimeLimitReached: r.TimeLimitReached,
		RunningTime:      Duration(r.RunningTime),
		LowerBound:       r.LowerBound,
		AdditionalInfo:   r.AdditionalInfo,
	}
	if r.Objective != nil {
		v := float64(*r.Objective)
		w.Objective = &v
	}
	if r.TimeToBest != nil {
		v := Duration(*r.TimeToBest)
		w.TimeToBest = &v
	}
	if r.StartTimes != nil {
		w.StartTimes = r.StartTimes.Indexed()
	}
	return json.Marshal(w)
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var w wireResult
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if !w.Status.Valid() {
		return fmt.Errorf("unknown status %d", int(w.Status))
	}
	*r = Result{
		Status:           w.Status,
		TimeLimitReached: w.TimeLimitReached,
		RunningTime:      w.RunningTime.Std(),
		LowerBound:       w.LowerBound,
		AdditionalInfo:   w.AdditionalInfo,
	}
	if w.Objective != nil {
		v := int(math.Round(*w.Objective))
		r.Objective = &v
	}
	if w.TimeToBest != nil {
		v := w.TimeToBest.Std()
		r.TimeToBest = &v
	}
	if w.StartTimes != nil {
		r.StartTimes = model.FromIndexed(w.StartTimes)
	}
	return nil
}

// Encode writes r as JSON.
func (r Result) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(r)
}

// Decode reads a result and resolves its job indices against inst. A nil
// inst skips the check.
func Decode(r io.Reader, inst *instance.Instance) (*Result, error) {
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if inst == nil {
		return &res, nil
	}
	for idx := range res.StartTimes {
		if _, ok := inst.Job(idx); !ok {
			return nil, fmt.Errorf("%w: job index %d in %s", ErrUnknownJob, idx, inst.Filename())
		}
	}
	return &res, nil
}

// Load reads the result stored at path.
func Load(path string, inst *instance.Instance) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, inst)
}

// HasObjective reports whether a feasible objective is available.
func (r *Result) HasObjective() bool {
	return r != nil && r.Status.IsFeasible() && r.Objective != nil
}
