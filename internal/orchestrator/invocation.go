package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a step in the lifecycle of one invocation.
type State int

const (
	Idle State = iota
	Spawning
	Running
	SpawnFailed
	Succeeded
	ExitFailed
	TimedOut
	WriteFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Spawning:
		return "spawning"
	case Running:
		return "running"
	case SpawnFailed:
		return "spawn_failed"
	case Succeeded:
		return "succeeded"
	case ExitFailed:
		return "exit_failed"
	case TimedOut:
		return "timed_out"
	case WriteFailed:
		return "write_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	switch s {
	case SpawnFailed, Succeeded, ExitFailed, TimedOut, WriteFailed:
		return true
	default:
		return false
	}
}

var transitions = map[State][]State{
	Idle:     {Spawning},
	Spawning: {SpawnFailed, Running},
	Running:  {Succeeded, ExitFailed, TimedOut, WriteFailed},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invocation is one request in flight. Its outcome slot accepts exactly one write.
type Invocation struct {
	ID        string
	Payload   string
	StartedAt time.Time
	Deadline  time.Time

	mu      sync.Mutex
	state   State
	outcome chan Outcome
}

func newInvocation(payload string, timeout time.Duration) *Invocation {
	now := time.Now()
	return &Invocation{
		ID:        uuid.NewString(),
		Payload:   payload,
		StartedAt: now,
		Deadline:  now.Add(timeout),
		state:     Idle,
		outcome:   make(chan Outcome, 1),
	}
}

// State returns the current lifecycle state.
func (inv *Invocation) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

func (inv *Invocation) transition(to State) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if !canTransition(inv.state, to) {
		return false
	}
	inv.state = to
	return true
}

// resolve moves the invocation into a terminal state and publishes out.
// It returns false when another path already resolved the invocation.
func (inv *Invocation) resolve(to State, out Outcome) bool {
	if !to.Terminal() {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if !canTransition(inv.state, to) {
		return false
	}
	inv.state = to
	inv.outcome <- out
	return true
}

// Done delivers the outcome once the invocation resolves.
func (inv *Invocation) Done() <-chan Outcome {
	return inv.outcome
}
