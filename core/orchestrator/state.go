package orchestrator

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a run.
type State int

const (
	Created State = iota
	Initialized
	Solved
	Saved
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case Solved:
		return "solved"
	case Saved:
		return "saved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when a lifecycle step is called out of
// order.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

func (r *Run) advance(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, r.state)
	}
	r.state = to
	return nil
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
