// Package metrics provides Prometheus metrics for the supervised backend and shell windows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/backendshell/internal/events"
	"github.com/smazurov/backendshell/internal/process"
)

const namespace = "backendshell"

// Exit outcomes used as the "outcome" label.
const (
	OutcomeClean        = "clean"
	OutcomeError        = "error"
	OutcomeSignal       = "signal"
	OutcomeSpawnFailure = "spawn_failure"
)

// Backend holds the shell's backend and window metrics.
type Backend struct {
	starts  prometheus.Counter
	exits   *prometheus.CounterVec
	running prometheus.Gauge
	windows prometheus.Gauge
}

// NewBackend creates the metrics and registers them with reg.
func NewBackend(reg prometheus.Registerer) *Backend {
	factory := promauto.With(reg)

	return &Backend{
		starts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "starts_total",
			Help:      "Backend processes spawned",
		}),
		exits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "exits_total",
			Help:      "Backend runs that ended, by outcome",
		}, []string{"outcome"}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "running",
			Help:      "1 while the supervisor tracks a running backend",
		}),
		windows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "windows_open",
			Help:      "Shell windows currently open",
		}),
	}
}

// Subscribe feeds the metrics from bus. Returns a function that removes
// every subscription.
func (m *Backend) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.BackendStateChangedEvent) {
			if e.NewState == string(process.StateRunning) {
				m.starts.Inc()
				m.running.Set(1)
				return
			}
			m.running.Set(0)
		}),
		bus.Subscribe(func(e events.BackendExitedEvent) {
			m.exits.WithLabelValues(ExitOutcome(e)).Inc()
		}),
		bus.Subscribe(func(_ events.WindowCreatedEvent) {
			m.windows.Inc()
		}),
		bus.Subscribe(func(e events.WindowClosedEvent) {
			m.windows.Set(float64(e.Remaining))
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// ExitOutcome classifies a backend exit.
func ExitOutcome(e events.BackendExitedEvent) string {
	switch {
	case e.Error != "" && e.PID == 0:
		return OutcomeSpawnFailure
	case e.Signal != "":
		return OutcomeSignal
	case e.ExitCode == 0 && e.Error == "":
		return OutcomeClean
	default:
		return OutcomeError
	}
}
