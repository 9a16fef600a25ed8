//go:build unix

package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/smazurov/backendshell/internal/config"
)

// healthServer returns options pointing the backend address at a test server.
func healthServer(t *testing.T, status int) *config.Options {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)

	return &config.Options{
		BackendCommand:    "sh",
		BackendArgs:       "-c 'sleep 30'",
		BackendDir:        t.TempDir(),
		BackendHost:       host,
		BackendPort:       port,
		BackendHealthPath: "/health",
		ReadyTimeout:      "1s",
		QuitTimeout:       "2s",
		KillTimeout:       "500ms",
	}
}

func TestRunCheckResolvesCommand(t *testing.T) {
	opts := healthServer(t, http.StatusOK)
	var out bytes.Buffer

	if ok := runCheck(context.Background(), &out, opts, false, false); !ok {
		t.Fatalf("check failed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "command:  sh -c sleep 30") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunCheckMissingExecutable(t *testing.T) {
	opts := healthServer(t, http.StatusOK)
	opts.BackendCommand = "/nonexistent/python3"
	var out bytes.Buffer

	if ok := runCheck(context.Background(), &out, opts, false, false); ok {
		t.Fatal("expected check to fail for a missing executable")
	}
	if !strings.Contains(out.String(), "executable: not found") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunCheckInvalidPort(t *testing.T) {
	opts := healthServer(t, http.StatusOK)
	opts.BackendPort = 70000
	var out bytes.Buffer

	if ok := runCheck(context.Background(), &out, opts, false, false); ok {
		t.Fatal("expected check to fail for an invalid port")
	}
	if !strings.Contains(out.String(), "invalid backend port") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunCheckProbe(t *testing.T) {
	var out bytes.Buffer
	if ok := runCheck(context.Background(), &out, healthServer(t, http.StatusOK), true, false); !ok {
		t.Fatalf("probe failed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "probe: ready") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if ok := runCheck(context.Background(), &out, healthServer(t, http.StatusServiceUnavailable), true, false); ok {
		t.Fatalf("probe should fail against an unhealthy backend:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "backend not ready") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunCheckStartStopsBackend(t *testing.T) {
	var out bytes.Buffer
	if ok := runCheck(context.Background(), &out, healthServer(t, http.StatusOK), false, true); !ok {
		t.Fatalf("check --start failed:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "stop: exited with code=-1, signal=terminated") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunCheckStartZeroQuitTimeout(t *testing.T) {
	opts := healthServer(t, http.StatusOK)
	opts.QuitTimeout = "0"
	var out bytes.Buffer

	if ok := runCheck(context.Background(), &out, opts, false, true); !ok {
		t.Fatalf("check --start failed:\n%s", out.String())
	}
	if strings.Contains(out.String(), "did not exit") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
