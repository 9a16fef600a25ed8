package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Backend is the supervised backend as seen by the lifecycle handlers.
type Backend interface {
	Start() error
	Stop()
	Wait(ctx context.Context) error

	// Exited is closed once the running backend exits, or already closed
	// when nothing is running.
	Exited() <-chan struct{}
}

// ReadinessProber reports when the backend answers on its address.
type ReadinessProber interface {
	WaitReady(ctx context.Context) error
}

// Options configures an App.
type Options struct {
	// Backend is the supervised backend (required).
	Backend Backend

	// Windows creates shell windows (required).
	Windows WindowManager

	// Prober gates the initial window on backend readiness (optional).
	Prober ReadinessProber

	// ReadyTimeout bounds the readiness probe. Zero skips the probe.
	ReadyTimeout time.Duration

	// QuitTimeout bounds how long quitting waits for the backend to exit.
	// Default is 10s.
	QuitTimeout time.Duration

	// Logger for lifecycle handling. If nil, uses slog.Default().
	Logger *slog.Logger
}

type lifecycleEvent int

const (
	eventReady lifecycleEvent = iota
	eventActivate
	eventBackendReady
	eventAllWindowsClosed
	eventQuit
)

func (e lifecycleEvent) String() string {
	switch e {
	case eventReady:
		return "ready"
	case eventActivate:
		return "activate"
	case eventBackendReady:
		return "backend-ready"
	case eventAllWindowsClosed:
		return "all-windows-closed"
	case eventQuit:
		return "quit"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// App ties the backend's lifetime to the application's. Lifecycle events
// are queued by the exported methods and handled one at a time by Run.
type App struct {
	backend      Backend
	windows      WindowManager
	prober       ReadinessProber
	readyTimeout time.Duration
	quitTimeout  time.Duration
	logger       *slog.Logger

	events chan lifecycleEvent
	done   chan struct{}

	// owned by the Run goroutine
	ready    bool
	quitting bool
	probeCtx context.Context
}

// New creates an App.
func New(opts Options) *App {
	if opts.Backend == nil || opts.Windows == nil {
		panic("shell.Options with Backend and Windows is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	quitTimeout := opts.QuitTimeout
	if quitTimeout <= 0 {
		quitTimeout = 10 * time.Second
	}

	return &App{
		backend:      opts.Backend,
		windows:      opts.Windows,
		prober:       opts.Prober,
		readyTimeout: opts.ReadyTimeout,
		quitTimeout:  quitTimeout,
		logger:       logger,
		events:       make(chan lifecycleEvent, 16),
		done:         make(chan struct{}),
	}
}

// Ready reports that the application finished launching. Only the first
// call has an effect.
func (a *App) Ready() { a.post(eventReady) }

// Activate reports that the application was reactivated, e.g. from the
// dock. A window is created if none are open.
func (a *App) Activate() { a.post(eventActivate) }

// AllWindowsClosed reports that the last window was closed.
func (a *App) AllWindowsClosed() { a.post(eventAllWindowsClosed) }

// Quit asks the application to exit.
func (a *App) Quit() { a.post(eventQuit) }

// Done is closed once Run has returned.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// post queues ev. It never blocks once the app has terminated.
func (a *App) post(ev lifecycleEvent) {
	select {
	case a.events <- ev:
	case <-a.done:
	}
}

// Run handles lifecycle events until the application quits or ctx is
// cancelled. On return the backend has been stopped and, unless the quit
// timeout expired, has exited.
func (a *App) Run(ctx context.Context) error {
	defer close(a.done)

	probeCtx, cancelProbe := context.WithCancel(ctx)
	defer cancelProbe()
	a.probeCtx = probeCtx

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Context cancelled, quitting")
			a.quit()
			cancelProbe()
			return a.teardown()

		case ev := <-a.events:
			a.logger.Debug("Lifecycle event", "event", ev.String())
			if a.dispatch(ev) {
				cancelProbe()
				return a.teardown()
			}
		}
	}
}

// dispatch handles one event and reports whether the app should terminate.
func (a *App) dispatch(ev lifecycleEvent) bool {
	switch ev {
	case eventReady:
		a.onReady()
	case eventBackendReady:
		a.ensureWindow()
	case eventActivate:
		if !a.ready {
			a.logger.Debug("Activate before ready, ignoring")
			return false
		}
		a.ensureWindow()
	case eventAllWindowsClosed:
		a.logger.Info("All windows closed")
		a.backend.Stop()
		return a.quit()
	case eventQuit:
		return a.quit()
	}
	return false
}

// onReady starts the backend and schedules the initial window.
func (a *App) onReady() {
	if a.ready {
		a.logger.Debug("Ready already handled, ignoring")
		return
	}
	a.ready = true

	if err := a.backend.Start(); err != nil {
		a.logger.Error("Backend failed to start", "error", err)
		a.ensureWindow()
		return
	}

	if a.prober == nil || a.readyTimeout <= 0 {
		a.ensureWindow()
		return
	}
	go a.awaitBackend(a.probeCtx, a.backend.Exited())
}

// awaitBackend probes the backend and then asks for the initial window,
// whether or not the probe succeeded. The probe ends early if the backend
// exits.
func (a *App) awaitBackend(ctx context.Context, exited <-chan struct{}) {
	ctx, cancel := context.WithTimeout(ctx, a.readyTimeout)
	defer cancel()

	go func() {
		select {
		case <-exited:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := a.prober.WaitReady(ctx); err != nil {
		select {
		case <-exited:
			err = errors.New("backend exited")
		default:
		}
		a.logger.Warn("Backend not ready, opening window anyway", "error", err, "timeout", a.readyTimeout)
	} else {
		a.logger.Info("Backend ready")
	}
	a.post(eventBackendReady)
}

// ensureWindow creates a window if none are open.
func (a *App) ensureWindow() {
	if a.quitting || a.windows.Count() > 0 {
		return
	}
	if _, err := a.windows.Create(); err != nil {
		a.logger.Error("Failed to create window", "error", err)
	}
}

// quit runs before-quit handling once and reports that the app should
// terminate.
func (a *App) quit() bool {
	if a.quitting {
		return true
	}
	a.quitting = true

	a.logger.Info("Quitting")
	a.backend.Stop()
	a.windows.CloseAll()
	return true
}

// teardown waits, bounded, for the backend to exit.
func (a *App) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.quitTimeout)
	defer cancel()

	if err := a.backend.Wait(ctx); err != nil {
		a.logger.Error("Backend still running after quit timeout", "timeout", a.quitTimeout)
		return fmt.Errorf("backend did not exit: %w", err)
	}
	a.logger.Info("Shutdown complete")
	return nil
}
