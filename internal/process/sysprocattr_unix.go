//go:build unix && !linux

package process

import "syscall"

// sysProcAttr puts the backend in its own process group so the whole tree
// can be signalled.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
