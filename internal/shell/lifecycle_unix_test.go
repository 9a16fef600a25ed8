//go:build unix

package shell

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/smazurov/backendshell/internal/backend"
	"github.com/smazurov/backendshell/internal/events"
	"github.com/smazurov/backendshell/internal/process"
)

func processGone(pid int) bool {
	return errors.Is(syscall.Kill(pid, 0), syscall.ESRCH)
}

func newSleepSupervisor(bus *events.Bus) *process.Supervisor {
	opts := &process.Options{
		Logger:      testLogger(),
		KillTimeout: 500 * time.Millisecond,
	}
	if bus != nil {
		opts.OnStateChange = PublishStateChanges(bus)
		opts.OnExit = PublishExits(bus)
	}
	return process.NewSupervisor(process.Spec{Command: "sh", Args: []string{"-c", "sleep 30"}}, opts)
}

func TestLastWindowClosedTerminatesBackend(t *testing.T) {
	sup := newSleepSupervisor(nil)
	a, windows := newTestApp(sup)
	done := runApp(context.Background(), a)

	a.Ready()
	waitFor(t, 2*time.Second, func() bool { return windows.Count() == 1 })

	info := sup.Info()
	if info.State != process.StateRunning || info.StartCount != 1 {
		t.Fatalf("expected one running backend, got %+v", info)
	}
	pid := info.PID

	windows.Close(windows.IDs()[0])
	if err := waitRun(t, done, 3*time.Second); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := sup.State(); got != process.StateNotRunning {
		t.Errorf("State() = %q after quit", got)
	}
	waitFor(t, 2*time.Second, func() bool { return processGone(pid) })
}

func TestActivateKeepsSingleBackend(t *testing.T) {
	sup := newSleepSupervisor(nil)
	a, windows := newTestApp(sup)
	done := runApp(context.Background(), a)

	a.Ready()
	waitFor(t, 2*time.Second, func() bool { return windows.Count() == 1 })
	pid := sup.Info().PID

	windows.CloseAll()
	a.Activate()
	a.Ready()
	waitFor(t, 2*time.Second, func() bool { return windows.Count() == 1 })

	info := sup.Info()
	if info.StartCount != 1 || info.PID != pid {
		t.Errorf("backend respawned: start count %d, pid %d (was %d)", info.StartCount, info.PID, pid)
	}

	a.Quit()
	if err := waitRun(t, done, 3*time.Second); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return processGone(pid) })
}

func TestMissingInterpreterStillOpensWindow(t *testing.T) {
	sup := process.NewSupervisor(process.Spec{Command: "/nonexistent/python3"}, &process.Options{Logger: testLogger()})
	a, windows := newTestApp(sup)
	done := runApp(context.Background(), a)

	a.Ready()
	waitFor(t, time.Second, func() bool { return windows.Count() == 1 })

	info := sup.Info()
	if info.State != process.StateNotRunning || info.LastExit == nil || info.LastExit.Err == nil {
		t.Errorf("expected recorded spawn failure, got %+v", info)
	}

	a.Quit()
	if err := waitRun(t, done, time.Second); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestDeadBackendDoesNotHoldWindow(t *testing.T) {
	tests := []struct {
		name string
		spec process.Spec
	}{
		{"missing executable", process.Spec{Command: "/nonexistent/python3"}},
		{"exits during readiness", process.Spec{Command: "sh", Args: []string{"-c", "exit 3"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sup := process.NewSupervisor(tt.spec, &process.Options{Logger: testLogger()})
			a, windows := newTestApp(sup, func(o *Options) {
				o.Prober = backend.NewProber("http://127.0.0.1:1/health", nil)
				o.ReadyTimeout = 10 * time.Second
			})
			done := runApp(context.Background(), a)

			start := time.Now()
			a.Ready()
			waitFor(t, 3*time.Second, func() bool { return windows.Count() == 1 })
			if elapsed := time.Since(start); elapsed > 3*time.Second {
				t.Errorf("first window after %s", elapsed)
			}

			a.Quit()
			if err := waitRun(t, done, time.Second); err != nil {
				t.Fatalf("Run() error: %v", err)
			}
		})
	}
}

func TestPublishCallbacks(t *testing.T) {
	bus := events.New()
	states := make(chan events.BackendStateChangedEvent, 4)
	exits := make(chan events.BackendExitedEvent, 4)
	defer bus.Subscribe(func(e events.BackendStateChangedEvent) { states <- e })()
	defer bus.Subscribe(func(e events.BackendExitedEvent) { exits <- e })()

	sup := newSleepSupervisor(bus)
	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	pid := sup.Info().PID

	select {
	case e := <-states:
		if e.OldState != "not_running" || e.NewState != "running" || e.PID != pid {
			t.Errorf("unexpected state event: %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for state event")
	}

	sup.Stop()

	select {
	case e := <-exits:
		if e.PID != pid || e.Signal == "" || e.Error != "" {
			t.Errorf("unexpected exit event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for exit event")
	}
}
