package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	defer mutex.Unlock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"process": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"process", true, true, true},
		{"api", false, false, true},
		{"shell", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestInvalidModuleLevelFallsBackToGlobal(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:   "warn",
		Modules: map[string]string{"process": "loud"},
	})

	handler := GetLogger("process").Handler()
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("invalid module level should fall back to global warn")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be enabled")
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	loggerBefore := GetLogger("process")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"process": "debug"},
	})

	loggerAfter := GetLogger("process")
	if !loggerAfter.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger after Initialize should have debug enabled")
	}

	// The LevelVar is shared, so the early handler sees the new level too
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Early logger should pick up the level set by Initialize")
	}
}

func TestUpdateLevels(t *testing.T) {
	resetState()

	Initialize(Config{Level: "info", Format: "text"})
	logger := GetLogger("process")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}

	UpdateLevels(Config{Level: "info", Modules: map[string]string{"process": "debug"}})

	if GetLogger("process") != logger {
		t.Error("UpdateLevels should not replace cached loggers")
	}
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after UpdateLevels")
	}

	UpdateLevels(Config{Level: "error"})
	if logger.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled after raising the global level")
	}
	if globalConfig.Format != "text" {
		t.Errorf("UpdateLevels changed the format to %q", globalConfig.Format)
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
	if !strings.Contains(output, "module=test") {
		t.Errorf("WithAttrs not propagated. Output: %s", output)
	}

	buf.Reset()
	logger.WithGroup("backend").Info("grouped", "pid", 7)
	if count := strings.Count(buf.String(), "backend.pid=7"); count != 2 {
		t.Errorf("Expected grouped attr from both handlers, got %d. Output: %s", count, buf.String())
	}
}

func TestJournalFields(t *testing.T) {
	var level slog.LevelVar
	h := NewJournalHandler(&level).
		WithAttrs([]slog.Attr{slog.String("module", "process")}).
		WithGroup("backend").(*JournalHandler)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "Backend started", 0)
	r.AddAttrs(
		slog.Int("pid", 4242),
		slog.Bool("ready", true),
		slog.Duration("timeout", 15*time.Second),
		slog.Group("exit", slog.Int("code", -1)),
	)

	fields := h.fields(r)
	want := map[string]string{
		"SYSLOG_IDENTIFIER": SyslogIdentifier,
		"MODULE":            "process",
		"BACKEND_PID":       "4242",
		"BACKEND_READY":     "true",
		"BACKEND_TIMEOUT":   "15s",
		"BACKEND_EXIT_CODE": "-1",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, fields[k], v)
		}
	}

	if !h.Enabled(context.Background(), slog.LevelInfo) || h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("journal handler should follow its LevelVar")
	}
	level.Set(slog.LevelDebug)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("journal handler should pick up LevelVar changes")
	}
}

func TestMapLevelToPriority(t *testing.T) {
	if got := mapLevelToPriority(slog.LevelError); got != 3 {
		t.Errorf("error priority = %d, want 3", got)
	}
	if got := mapLevelToPriority(slog.LevelDebug - 4); got != 7 {
		t.Errorf("trace priority = %d, want 7", got)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
