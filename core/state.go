package core

import "fmt"

// AgentState tracks where an agent is in its lifecycle. Idle is the initial
// state; Running is entered only from Idle; Finished ends the step loop;
// Error is a transient marker used on the failure path and is never the
// steady state a caller observes after a run returns.
type AgentState int

const (
	// StateIdle means the agent is ready to accept a run.
	StateIdle AgentState = iota
	// StateRunning means the step loop is executing.
	StateRunning
	// StateFinished means the current run signalled completion.
	StateFinished
	// StateError marks an unhandled failure while running.
	StateError
)

// String returns the lower-case state name.
func (s AgentState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Valid reports whether s is a member of the state enum.
func (s AgentState) Valid() bool {
	return s >= StateIdle && s <= StateError
}
