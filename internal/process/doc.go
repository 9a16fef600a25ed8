// Package process provides backend subprocess lifecycle supervision.
//
// Supervisor owns at most one running backend process:
//   - Start spawns the configured command unless one is already running
//   - Stop sends a terminate request and returns without waiting
//   - A termination observer records the exit code and signal and clears
//     the running slot when the process exits on its own
//   - Optional forced kill after KillTimeout if a stopped process lingers
//   - Callback hooks for state changes and exits
//
// The backend's stdout and stderr are passed straight through to the
// shell's own streams.
//
// Example usage:
//
//	sup := process.NewSupervisor(process.Spec{
//	    Command: "python3",
//	    Args:    []string{"-m", "uvicorn", "main:app", "--port", "8000"},
//	    Dir:     "/opt/app/backend",
//	}, &process.Options{
//	    KillTimeout: 5 * time.Second,
//	    OnExit: func(e process.Exit) {
//	        log.Printf("backend exited: %s", e)
//	    },
//	})
//	if err := sup.Start(); err != nil {
//	    log.Printf("backend failed to start: %v", err)
//	}
//	defer sup.Stop()
package process
