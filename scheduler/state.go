package scheduler

import "fmt"

// State is the run state of a Handler.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRunning
	StateCompleted
	StateAborted
)

var stateNames = [...]string{
	StateIdle:       "IDLE",
	StateValidating: "VALIDATING",
	StateRunning:    "RUNNING",
	StateCompleted:  "COMPLETED",
	StateAborted:    "ABORTED",
}

func (s State) String() string {
	if s >= StateIdle && s <= StateAborted {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown run state %q", b)
}
