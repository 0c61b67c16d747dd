package result

import "fmt"

// Status is the outcome of a solve attempt. Values are persisted as integers.
type Status int

const (
	NoSolution Status = 0
	Optimal    Status = 1
	Infeasible Status = 2
	Heuristic  Status = 3
)

func (s Status) String() string {
	switch s {
	case NoSolution:
		return "NoSolution"
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Heuristic:
		return "Heuristic"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// IsFeasible reports whether the status carries a schedule.
func (s Status) IsFeasible() bool { return s == Optimal || s == Heuristic }

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool { return s >= NoSolution && s <= Heuristic }
