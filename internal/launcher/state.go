package launcher

import (
	"errors"
	"fmt"
)

// State is a step of the dispatcher lifecycle.
type State int

const (
	StateResolving State = iota
	StateSpawned
	StateRunning
	StateExited
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateSpawned:
		return "spawned"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIllegalTransition is returned for a transition the table does not allow.
var ErrIllegalTransition = errors.New("illegal state transition")

// transitions lists the states reachable from each state. Exited is terminal.
var transitions = map[State][]State{
	StateResolving: {StateSpawned, StateExited},
	StateSpawned:   {StateRunning, StateExited},
	StateRunning:   {StateExited},
}

// machine tracks the current state and enforces the transition table.
type machine struct {
	state State
}

func (m *machine) transition(to State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
}
