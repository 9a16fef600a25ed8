//go:build linux

package process

import "syscall"

// sysProcAttr puts the backend in its own process group so the whole tree
// can be signalled, and has the kernel send SIGTERM if the shell dies first.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
