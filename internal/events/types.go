package events

// Event type constants for kelindar/event.
const (
	TypeBackendStateChanged uint32 = iota + 1
	TypeBackendExited
	TypeWindowCreated
	TypeWindowClosed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// BackendStateChangedEvent is published on every supervisor state transition.
type BackendStateChangedEvent struct {
	OldState  string `json:"old_state" example:"not_running" doc:"Previous supervisor state"`
	NewState  string `json:"new_state" example:"running" doc:"New supervisor state"`
	PID       int    `json:"pid" example:"4242" doc:"Backend process ID, 0 when not running"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for BackendStateChangedEvent.
func (e BackendStateChangedEvent) Type() uint32 { return TypeBackendStateChanged }

// BackendExitedEvent is published when a backend run ends or fails to spawn.
type BackendExitedEvent struct {
	PID       int    `json:"pid" example:"4242" doc:"Backend process ID, 0 for spawn failures"`
	ExitCode  int    `json:"exit_code" example:"0" doc:"Exit code, -1 when unavailable"`
	Signal    string `json:"signal,omitempty" example:"terminated" doc:"Terminating signal"`
	Error     string `json:"error,omitempty" doc:"Spawn or wait error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Exit timestamp"`
}

// Type returns the event type identifier for BackendExitedEvent.
func (e BackendExitedEvent) Type() uint32 { return TypeBackendExited }

// WindowCreatedEvent is published when a shell window is created.
type WindowCreatedEvent struct {
	WindowID   int    `json:"window_id" example:"1" doc:"Window identifier"`
	Page       string `json:"page" example:"/opt/app/renderer/index.html" doc:"Page loaded by the window"`
	BackendURL string `json:"backend_url" example:"http://127.0.0.1:8000" doc:"Backend address the page talks to"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Creation timestamp"`
}

// Type returns the event type identifier for WindowCreatedEvent.
func (e WindowCreatedEvent) Type() uint32 { return TypeWindowCreated }

// WindowClosedEvent is published when a shell window is closed.
type WindowClosedEvent struct {
	WindowID  int    `json:"window_id" example:"1" doc:"Window identifier"`
	Remaining int    `json:"remaining" example:"0" doc:"Windows still open"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Close timestamp"`
}

// Type returns the event type identifier for WindowClosedEvent.
func (e WindowClosedEvent) Type() uint32 { return TypeWindowClosed }
