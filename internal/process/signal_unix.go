//go:build unix

package process

import (
	"os"
	"syscall"
)

// terminate sends SIGTERM to the backend's process group, falling back to
// the process itself if the group is gone.
func terminate(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err != nil {
		return p.Signal(syscall.SIGTERM)
	}
	return nil
}

// forceKill sends SIGKILL to the backend's process group.
func forceKill(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		return p.Kill()
	}
	return nil
}

// exitSignal returns the name of the signal that ended the process, if any.
func exitSignal(state *os.ProcessState) string {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return ws.Signal().String()
}
