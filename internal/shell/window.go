package shell

import (
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/smazurov/backendshell/internal/events"
)

// WindowManager creates and tracks shell windows.
type WindowManager interface {
	// Create opens a new window and returns its ID.
	Create() (int, error)

	// Count returns the number of open windows.
	Count() int

	// CloseAll closes every window without reporting all-windows-closed,
	// as happens when the application quits.
	CloseAll()
}

// WindowConfig describes what a shell window loads.
type WindowConfig struct {
	Page       string // local page the window renders
	BackendURL string // address the page talks to
	Width      int
	Height     int
}

// Headless tracks windows without rendering them. Closing the last window
// through Close invokes the all-closed callback, mirroring a desktop shell.
type Headless struct {
	cfg    WindowConfig
	bus    *events.Bus
	logger *slog.Logger

	mu          sync.Mutex
	nextID      int
	open        map[int]time.Time
	onAllClosed func()
}

// NewHeadless creates a headless window manager. bus may be nil.
func NewHeadless(cfg WindowConfig, bus *events.Bus, logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	return &Headless{
		cfg:    cfg,
		bus:    bus,
		logger: logger,
		open:   make(map[int]time.Time),
	}
}

// SetOnAllClosed sets the callback invoked when Close removes the last window.
func (h *Headless) SetOnAllClosed(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAllClosed = fn
}

// Create implements WindowManager.
func (h *Headless) Create() (int, error) {
	if h.cfg.Page != "" {
		if _, err := os.Stat(h.cfg.Page); err != nil {
			h.logger.Warn("Window page not found", "page", h.cfg.Page, "error", err)
		}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.open[id] = time.Now()
	h.mu.Unlock()

	h.logger.Info("Window created", "window_id", id, "page", h.cfg.Page, "backend_url", h.cfg.BackendURL,
		"width", h.cfg.Width, "height", h.cfg.Height)
	h.publish(events.WindowCreatedEvent{
		WindowID:   id,
		Page:       h.cfg.Page,
		BackendURL: h.cfg.BackendURL,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
	return id, nil
}

// Close closes one window and reports whether it was open. Closing the
// last one reports all-windows-closed.
func (h *Headless) Close(id int) bool {
	h.mu.Lock()
	if _, ok := h.open[id]; !ok {
		h.mu.Unlock()
		return false
	}
	delete(h.open, id)
	remaining := len(h.open)
	onAllClosed := h.onAllClosed
	h.mu.Unlock()

	h.logger.Info("Window closed", "window_id", id, "remaining", remaining)
	h.publish(events.WindowClosedEvent{WindowID: id, Remaining: remaining, Timestamp: time.Now().Format(time.RFC3339)})

	if remaining == 0 && onAllClosed != nil {
		onAllClosed()
	}
	return true
}

// CloseAll implements WindowManager.
func (h *Headless) CloseAll() {
	h.mu.Lock()
	ids := make([]int, 0, len(h.open))
	for id := range h.open {
		ids = append(ids, id)
	}
	clear(h.open)
	h.mu.Unlock()

	slices.Sort(ids)
	for i, id := range ids {
		h.logger.Info("Window closed", "window_id", id)
		h.publish(events.WindowClosedEvent{WindowID: id, Remaining: len(ids) - i - 1, Timestamp: time.Now().Format(time.RFC3339)})
	}
}

// Count implements WindowManager.
func (h *Headless) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.open)
}

// IDs returns the open window IDs in creation order.
func (h *Headless) IDs() []int {
	h.mu.Lock()
	ids := make([]int, 0, len(h.open))
	for id := range h.open {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	slices.Sort(ids)
	return ids
}

func (h *Headless) publish(ev events.Event) {
	if h.bus != nil {
		h.bus.Publish(ev)
	}
}
