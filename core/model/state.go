package model

import "fmt"

// StateKind tells what kind a machine state is. Values are wire-stable.
type StateKind int

const (
	StateOff  StateKind = 0
	StateOn   StateKind = 1
	StateIdle StateKind = 2
)

func (k StateKind) String() string {
	switch k {
	case StateOff:
		return "Off"
	case StateOn:
		return "On"
	case StateIdle:
		return "Idle"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}
