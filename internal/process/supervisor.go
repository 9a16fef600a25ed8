package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Spec describes the command the supervisor runs.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // nil inherits the shell's environment
}

// String returns the command line for logging.
func (s Spec) String() string {
	return strings.Join(append([]string{s.Command}, s.Args...), " ")
}

// StateChangeCallback is called after the supervisor changes state.
type StateChangeCallback func(oldState, newState State, info Info)

// ExitCallback is called once per observed termination, including spawn failures.
type ExitCallback func(exit Exit)

// Options configures a Supervisor.
type Options struct {
	// Logger for supervisor operations. If nil, uses slog.Default().
	Logger *slog.Logger

	// Stdout and Stderr receive the backend's output. Nil passes the
	// shell's own streams through.
	Stdout io.Writer
	Stderr io.Writer

	// KillTimeout is how long a stopped backend may take to exit before it
	// is force-killed. Zero disables the forced kill.
	KillTimeout time.Duration

	// OnStateChange is called on every state transition (optional).
	OnStateChange StateChangeCallback

	// OnExit is called when a run ends or fails to spawn (optional).
	OnExit ExitCallback
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// run is one spawned instance of the backend.
type run struct {
	cmd       *exec.Cmd
	pid       int
	startedAt time.Time
	done      chan struct{} // closed once Wait returns
}

// Supervisor owns at most one running backend process.
// Start and Stop never wait on the subprocess.
type Supervisor struct {
	spec   Spec
	opts   Options
	logger *slog.Logger

	// transitionMu keeps each state change and its notification together,
	// so callbacks see transitions in order. Callbacks must not call back
	// into the supervisor.
	transitionMu sync.Mutex

	mu         sync.Mutex
	current    *run
	lastExit   *Exit
	startCount int

	// counts observers that have not yet seen their process exit
	observers sync.WaitGroup
}

// NewSupervisor creates a supervisor for spec. It does not start anything.
func NewSupervisor(spec Spec, opts *Options) *Supervisor {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}

	return &Supervisor{
		spec:   spec,
		opts:   o,
		logger: o.Logger,
	}
}

// Spec returns the command the supervisor runs.
func (s *Supervisor) Spec() Spec {
	return s.spec
}

// Start spawns the backend. If a backend is already running it logs and
// returns nil without spawning a second instance, since both would bind
// the same port.
//
// A spawn failure is reported to OnExit like any other termination and
// is also returned.
func (s *Supervisor) Start() error {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	if s.current != nil {
		pid := s.current.pid
		s.mu.Unlock()
		s.logger.Info("Backend already running, ignoring start", "pid", pid)
		return nil
	}

	cmd := exec.Command(s.spec.Command, s.spec.Args...)
	cmd.Dir = s.spec.Dir
	cmd.Env = s.spec.Env
	cmd.Stdout = s.opts.Stdout
	cmd.Stderr = s.opts.Stderr
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		exit := Exit{Code: -1, Err: err, At: time.Now()}
		s.lastExit = &exit
		s.mu.Unlock()

		s.logger.Error("Failed to start backend", "error", err, "command", s.spec.String(), "dir", s.spec.Dir)
		s.notifyExit(exit)
		return fmt.Errorf("start backend: %w", err)
	}

	r := &run{
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.current = r
	s.startCount++
	s.observers.Add(1)
	info := s.infoLocked()
	s.mu.Unlock()

	s.logger.Info("Backend started", "pid", r.pid, "command", s.spec.String(), "dir", s.spec.Dir)
	s.notifyStateChange(StateNotRunning, StateRunning, info)

	go s.observe(r)
	return nil
}

// observe waits for r to exit, records the exit and clears the slot if r
// is still the current run.
func (s *Supervisor) observe(r *run) {
	defer s.observers.Done()

	err := r.cmd.Wait()
	exit := exitFromWait(r.pid, err, r.cmd.ProcessState)
	close(r.done)

	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	s.lastExit = &exit
	wasCurrent := s.current == r
	if wasCurrent {
		s.current = nil
	}
	info := s.infoLocked()
	s.mu.Unlock()

	if exit.Success() {
		s.logger.Info("Backend exited", "pid", exit.PID, "exit_code", exit.Code)
	} else {
		s.logger.Warn("Backend exited", "pid", exit.PID, "exit_code", exit.Code, "signal", exit.Signal, "error", exit.Err)
	}

	if wasCurrent {
		s.notifyStateChange(StateRunning, StateNotRunning, info)
	}
	s.notifyExit(exit)
}

// Stop asks the running backend to terminate and clears the slot at once.
// It does not wait for the process to exit and never fails; with nothing
// running it is a no-op.
func (s *Supervisor) Stop() {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	r := s.current
	if r == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	info := s.infoLocked()
	s.mu.Unlock()

	s.logger.Info("Stopping backend", "pid", r.pid)
	select {
	case <-r.done:
		// already reaped, the observer is about to report it
	default:
		if err := terminate(r.cmd.Process); err != nil {
			s.logger.Debug("Terminate request failed", "pid", r.pid, "error", err)
		}
	}
	s.notifyStateChange(StateRunning, StateNotRunning, info)

	if s.opts.KillTimeout > 0 {
		go s.killAfter(r, s.opts.KillTimeout)
	}
}

// killAfter force-kills r if it has not exited within timeout.
func (s *Supervisor) killAfter(r *run, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
		s.logger.Warn("Backend did not exit after terminate, forcing kill", "pid", r.pid, "timeout", timeout)
		if err := forceKill(r.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Error("Failed to kill backend", "pid", r.pid, "error", err)
		}
	}
}

// Wait blocks until every spawned backend has been observed exiting, or
// ctx is done. It must not race with Start.
func (s *Supervisor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.observers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exited returns a channel closed when the current backend exits. With
// nothing running the channel is already closed.
func (s *Supervisor) Exited() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return closedChan
	}
	return s.current.done
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return StateRunning
	}
	return StateNotRunning
}

// Info returns a snapshot of the supervisor.
func (s *Supervisor) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

// infoLocked builds an Info (must hold lock).
func (s *Supervisor) infoLocked() Info {
	info := Info{
		State:      StateNotRunning,
		StartCount: s.startCount,
	}
	if s.current != nil {
		info.State = StateRunning
		info.PID = s.current.pid
		info.StartedAt = s.current.startedAt
	}
	if s.lastExit != nil {
		exit := *s.lastExit
		info.LastExit = &exit
	}
	return info
}

func (s *Supervisor) notifyStateChange(oldState, newState State, info Info) {
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(oldState, newState, info)
	}
}

func (s *Supervisor) notifyExit(exit Exit) {
	if s.opts.OnExit != nil {
		s.opts.OnExit(exit)
	}
}

// exitFromWait builds an Exit from the result of cmd.Wait.
// ExitErrors are expected and carried by the process state, not Err.
func exitFromWait(pid int, err error, state *os.ProcessState) Exit {
	exit := Exit{PID: pid, Code: -1, At: time.Now()}
	if state != nil {
		exit.Code = state.ExitCode()
		exit.Signal = exitSignal(state)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		exit.Err = err
	}
	return exit
}
