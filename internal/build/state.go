package build

import "fmt"

// State is the pipeline lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateCleaning  State = "cleaning"
	StateCompiling State = "compiling"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// IsTerminal reports whether the state is final.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		// failed covers setup errors and cancellation before the clean step.
		return to == StateCleaning || to == StateFailed
	case StateCleaning:
		return to == StateCompiling || to == StateFailed
	case StateCompiling:
		return to == StateDone || to == StateFailed
	default:
		return false
	}
}

func transitionError(from, to State) error {
	return fmt.Errorf("disallowed pipeline transition %s -> %s", from, to)
}
