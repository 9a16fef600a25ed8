package shell

import (
	"time"

	"github.com/smazurov/backendshell/internal/events"
	"github.com/smazurov/backendshell/internal/process"
)

// PublishStateChanges returns a supervisor callback that publishes state
// transitions on bus.
func PublishStateChanges(bus *events.Bus) process.StateChangeCallback {
	return func(oldState, newState process.State, info process.Info) {
		bus.Publish(events.BackendStateChangedEvent{
			OldState:  string(oldState),
			NewState:  string(newState),
			PID:       info.PID,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// PublishExits returns a supervisor callback that publishes backend exits
// on bus.
func PublishExits(bus *events.Bus) process.ExitCallback {
	return func(exit process.Exit) {
		ev := events.BackendExitedEvent{
			PID:       exit.PID,
			ExitCode:  exit.Code,
			Signal:    exit.Signal,
			Timestamp: exit.At.Format(time.RFC3339),
		}
		if exit.Err != nil {
			ev.Error = exit.Err.Error()
		}
		bus.Publish(ev)
	}
}
