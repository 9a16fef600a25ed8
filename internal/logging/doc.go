// Package logging provides structured logging with per-module log levels.
//
// Records go to stdout when a terminal, pipe or file is attached, and to
// the systemd journal when one is reachable. Both are used when both are
// available.
//
// Initialize once at startup, before or after modules have asked for
// loggers:
//
//	logging.Initialize(logging.Config{
//		Level:  "info", // debug, info, warn, error
//		Format: "text", // text or json
//		Modules: map[string]string{
//			"process": "debug",
//			"api":     "warn",
//		},
//	})
//
// Each module keeps one cached logger whose level lives in a LevelVar:
//
//	logger := logging.GetLogger("process")
//	logger.Info("Backend started", "pid", pid)
//
// UpdateLevels changes levels in place, which is how a reloaded config
// file takes effect without a restart.
//
// Journal entries carry SYSLOG_IDENTIFIER=backendshell and one field per
// attribute, so they can be filtered with:
//
//	journalctl -t backendshell MODULE=process
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	process = "debug"
//	api = "warn"
package logging
