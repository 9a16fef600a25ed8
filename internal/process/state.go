package process

import (
	"fmt"
	"strings"
	"time"
)

// State represents the current state of the supervised backend.
type State string

// Supervisor states.
const (
	StateNotRunning State = "not_running" // No live process
	StateRunning    State = "running"     // Spawned, not yet stopped or observed exiting
)

// Exit describes how a backend run ended.
type Exit struct {
	PID    int
	Code   int    // -1 when the process has no exit status (spawn failure, signal)
	Signal string // name of the terminating signal, if any
	Err    error  // spawn or wait failure
	At     time.Time
}

// Success reports whether the run ended with exit code 0.
func (e Exit) Success() bool {
	return e.Err == nil && e.Code == 0
}

func (e Exit) String() string {
	if e.Err != nil {
		return fmt.Sprintf("failed: %v", e.Err)
	}
	bits := []string{fmt.Sprintf("code=%d", e.Code)}
	if e.Signal != "" {
		bits = append(bits, "signal="+e.Signal)
	}
	return "exited with " + strings.Join(bits, ", ")
}

// Info contains a snapshot of the supervisor.
type Info struct {
	State      State
	PID        int
	StartedAt  time.Time
	StartCount int
	LastExit   *Exit
}
