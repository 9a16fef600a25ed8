package backend

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/smazurov/backendshell/internal/process"
)

// Defaults for the bundled FastAPI backend.
const (
	DefaultArgs       = "-m uvicorn main:app --host {host} --port {port}"
	DefaultDir        = "backend"
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 8000
	DefaultHealthPath = "/health"
)

// ErrInvalidPort is returned for a port outside 1-65535.
var ErrInvalidPort = errors.New("invalid backend port")

// Config describes how to launch the backend server.
type Config struct {
	// Command is the executable. Empty selects the platform interpreter.
	Command string

	// Args is a quoted argument string; {host} and {port} are substituted.
	Args string

	// Dir is the working directory. Relative paths resolve against the
	// install directory.
	Dir string

	Host       string
	Port       int
	HealthPath string

	// Env is the backend environment; nil inherits the shell's.
	Env []string
}

// DefaultCommand returns the interpreter used on goos.
func DefaultCommand(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// Address returns the backend's host:port.
func (c Config) Address() string {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// URL returns the backend's base URL.
func (c Config) URL() string {
	return "http://" + c.Address()
}

// HealthURL returns the URL polled by the readiness probe.
func (c Config) HealthURL() string {
	path := c.HealthPath
	if path == "" {
		path = DefaultHealthPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.URL() + path
}

// Resolve turns cfg into a process spec. installDir anchors a relative Dir.
func Resolve(cfg Config, installDir string) (process.Spec, error) {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		command = DefaultCommand(runtime.GOOS)
	}

	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	if port < 1 || port > 65535 {
		return process.Spec{}, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}

	template := cfg.Args
	if template == "" {
		template = DefaultArgs
	}
	expanded := strings.NewReplacer("{host}", host, "{port}", strconv.Itoa(port)).Replace(template)
	args, err := parseCommand(expanded)
	if err != nil {
		return process.Spec{}, fmt.Errorf("failed to parse backend args: %w", err)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(installDir, dir)
	}

	return process.Spec{
		Command: command,
		Args:    args,
		Dir:     filepath.Clean(dir),
		Env:     cfg.Env,
	}, nil
}

// InstallDir returns the directory holding the running executable.
func InstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}
