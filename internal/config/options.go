package config

import (
	"time"

	"github.com/smazurov/backendshell/internal/backend"
	"github.com/smazurov/backendshell/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"backendshell.toml"`

	// Backend settings
	BackendCommand    string `help:"Backend executable (python3, or python on Windows, when empty)" toml:"backend.command" env:"BACKEND_COMMAND"`
	BackendArgs       string `help:"Backend arguments, {host} and {port} are substituted" default:"-m uvicorn main:app --host {host} --port {port}" toml:"backend.args" env:"BACKEND_ARGS"`
	BackendDir        string `help:"Backend working directory, relative to the executable" default:"backend" toml:"backend.dir" env:"BACKEND_DIR"`
	BackendHost       string `help:"Host the backend binds" default:"127.0.0.1" toml:"backend.host" env:"BACKEND_HOST"`
	BackendPort       int    `help:"Port the backend binds" default:"8000" toml:"backend.port" env:"BACKEND_PORT"`
	BackendHealthPath string `help:"Path polled before the first window opens" default:"/health" toml:"backend.health_path" env:"BACKEND_HEALTH_PATH"`

	// Lifecycle settings
	ReadyTimeout string `help:"Readiness probe timeout, 0 disables the probe" default:"15s" toml:"lifecycle.ready_timeout" env:"READY_TIMEOUT"`
	QuitTimeout  string `help:"How long quitting waits for the backend to exit, 0 uses the default" default:"10s" toml:"lifecycle.quit_timeout" env:"QUIT_TIMEOUT"`
	KillTimeout  string `help:"Grace period before a stopped backend is killed, 0 disables" default:"5s" toml:"lifecycle.kill_timeout" env:"KILL_TIMEOUT"`

	// Window settings
	WindowPage   string `help:"Page loaded by shell windows" default:"renderer/index.html" toml:"window.page" env:"WINDOW_PAGE"`
	WindowWidth  int    `help:"Window width" default:"1000" toml:"window.width" env:"WINDOW_WIDTH"`
	WindowHeight int    `help:"Window height" default:"760" toml:"window.height" env:"WINDOW_HEIGHT"`

	// Control API settings
	ControlAddr    string `help:"Control API listen address, empty disables the API" toml:"control.addr" env:"CONTROL_ADDR"`
	MetricsEnabled bool   `help:"Serve Prometheus metrics on the control API" default:"true" toml:"control.metrics_enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingProcess string `help:"Process supervisor logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingShell   string `help:"Shell lifecycle logging level" default:"info" toml:"logging.shell" env:"LOGGING_SHELL"`
	LoggingBackend string `help:"Backend probe logging level" default:"info" toml:"logging.backend" env:"LOGGING_BACKEND"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// Backend returns the backend launch configuration.
func (o *Options) Backend() backend.Config {
	return backend.Config{
		Command:    o.BackendCommand,
		Args:       o.BackendArgs,
		Dir:        o.BackendDir,
		Host:       o.BackendHost,
		Port:       o.BackendPort,
		HealthPath: o.BackendHealthPath,
	}
}

// Logging returns the logging configuration.
func (o *Options) Logging() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"process": o.LoggingProcess,
			"shell":   o.LoggingShell,
			"backend": o.LoggingBackend,
			"api":     o.LoggingAPI,
		},
	}
}

// ReadyTimeoutDuration parses ReadyTimeout, falling back to 15s.
func (o *Options) ReadyTimeoutDuration() time.Duration {
	return parseDuration(o.ReadyTimeout, 15*time.Second)
}

// QuitTimeoutDuration parses QuitTimeout, falling back to 10s. Quitting
// always waits, so zero also yields the default.
func (o *Options) QuitTimeoutDuration() time.Duration {
	if d := parseDuration(o.QuitTimeout, 10*time.Second); d > 0 {
		return d
	}
	return 10 * time.Second
}

// KillTimeoutDuration parses KillTimeout, falling back to 5s.
func (o *Options) KillTimeoutDuration() time.Duration {
	return parseDuration(o.KillTimeout, 5*time.Second)
}

// parseDuration parses s, returning def when s is empty or malformed.
// "0" is valid and yields zero.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
