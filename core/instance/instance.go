package instance

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/tecsched/core/model"
)

// Instance is the aggregate scheduling problem. Field names follow the
// persisted JSON format.
type Instance struct {
	MachinesCount  int              `json:"MachinesCount"`
	Jobs           []model.Job      `json:"Jobs"`
	Intervals      []model.Interval `json:"Intervals"`
	LengthInterval int              `json:"LengthInterval"`

	// Transitions between the On state and every Off state, indexed by Off state.
	OffOnTime             []int `json:"OffOnTime"`
	OnOffTime             []int `json:"OnOffTime"`
	OffOnPowerConsumption []int `json:"OffOnPowerConsumption"`
	OnOffPowerConsumption []int `json:"OnOffPowerConsumption"`

	// Transitions between the Idle state and every Off state. Nil entries are
	// unsupported transitions.
	OffIdleTime             []*int `json:"OffIdleTime"`
	IdleOffTime             []*int `json:"IdleOffTime"`
	OffIdlePowerConsumption []*int `json:"OffIdlePowerConsumption"`
	IdleOffPowerConsumption []*int `json:"IdleOffPowerConsumption"`

	OnPowerConsumption   int   `json:"OnPowerConsumption"`
	IdlePowerConsumption int   `json:"IdlePowerConsumption"`
	OffPowerConsumption  []int `json:"OffPowerConsumption"`

	// OptimalSwitchingCosts[i][j] is the cheapest way to keep the machine out
	// of processing from interval i (inclusive) until interval j (exclusive).
	OptimalSwitchingCosts Table `json:"OptimalSwitchingCosts"`
	GapsLowerBounds       Table `json:"GapsLowerBounds"`

	IdleStateIdx                 int               `json:"IdleStateIdx"`
	OnStateIdx                   int               `json:"OnStateIdx"`
	BaseOffStateIdx              int               `json:"BaseOffStateIdx"`
	OffStateInds                 []int             `json:"OffStateInds"`
	States                       []model.StateKind `json:"States"`
	StateDiagramPowerConsumption Table             `json:"StateDiagramPowerConsumption"`
	StateDiagramTime             Table             `json:"StateDiagramTime"`
	StatePowerConsumption        []int             `json:"StatePowerConsumption"`
	StateInds                    []int             `json:"StateInds"`

	EarliestOnIntervalIdx int     `json:"EarliestOnIntervalIdx"`
	LatestOnIntervalIdx   int     `json:"LatestOnIntervalIdx"`
	CumulativeEnergyCost  [][]int `json:"CumulativeEnergyCost"`

	Metadata map[string]any `json:"Metadata"`

	filename    string
	machineJobs [][]model.Job
}

// Decode reads an instance in JSON form. filename identifies the instance and
// may be empty.
func Decode(r io.Reader, filename string) (*Instance, error) {
	var inst Instance
	if err := json.NewDecoder(r).Decode(&inst); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	inst.filename = filename
	if err := inst.Reindex(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Load reads the instance stored at path. The base name of path becomes the
// instance identity.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, filepath.Base(path))
}

// Encode writes the instance, including every derived table, as JSON.
func (in *Instance) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(in)
}

// Reindex partitions jobs per machine. Decode calls it; callers that build
// or edit an Instance by hand must call it before querying.
func (in *Instance) Reindex() error {
	if in.Metadata == nil {
		in.Metadata = map[string]any{}
	}
	if in.MachinesCount < 0 {
		return fmt.Errorf("%w: negative machines count %d", ErrInvalidInstance, in.MachinesCount)
	}
	in.machineJobs = make([][]model.Job, in.MachinesCount)
	for _, j := range in.Jobs {
		if j.MachineIdx < 0 || j.MachineIdx >= in.MachinesCount {
			return fmt.Errorf("%w: job %d has machine index %d outside [0,%d)",
				ErrInvalidInstance, j.ID, j.MachineIdx, in.MachinesCount)
		}
		in.machineJobs[j.MachineIdx] = append(in.machineJobs[j.MachineIdx], j)
	}
	return nil
}

// Filename returns the name of the file the instance was read from.
func (in *Instance) Filename() string { return in.filename }

// SameAs reports whether both instances originate from the same file.
// Structural content is not compared.
func (in *Instance) SameAs(other *Instance) bool {
	if in == nil || other == nil {
		return false
	}
	return in.filename != "" && in.filename == other.filename
}

// MachineJobs returns the jobs assigned to machine m in index order.
func (in *Instance) MachineJobs(m int) []model.Job {
	if m < 0 || m >= len(in.machineJobs) {
		return nil
	}
	return in.machineJobs[m]
}

// Job returns the job at the given index.
func (in *Instance) Job(index int) (model.Job, bool) {
	if index < 0 || index >= len(in.Jobs) {
		return model.Job{}, false
	}
	return in.Jobs[index], true
}

// TotalProcessingTime sums the processing time of every job.
func (in *Instance) TotalProcessingTime() int {
	total := 0
	for _, j := range in.Jobs {
		total += j.ProcessingTime
	}
	return total
}

// Horizon returns the end of the last interval.
func (in *Instance) Horizon() int {
	if len(in.Intervals) == 0 {
		return 0
	}
	return in.Intervals[len(in.Intervals)-1].End
}
