package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/backendshell/cmd"
	"github.com/smazurov/backendshell/internal/api"
	"github.com/smazurov/backendshell/internal/backend"
	"github.com/smazurov/backendshell/internal/config"
	"github.com/smazurov/backendshell/internal/events"
	"github.com/smazurov/backendshell/internal/logging"
	"github.com/smazurov/backendshell/internal/metrics"
	"github.com/smazurov/backendshell/internal/process"
	"github.com/smazurov/backendshell/internal/shell"
	"github.com/smazurov/backendshell/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd *cobra.Command

	cli := humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		if loadErr := config.LoadConfig(opts, rootCmd); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.Logging())
		logger := logging.GetLogger("main")
		logger.Info("Starting backend shell", "version", version.Get().String())

		installDir, err := backend.InstallDir()
		var spec process.Spec
		backendCfg := opts.Backend()
		if err == nil {
			spec, err = backend.Resolve(backendCfg, installDir)
		}
		if err != nil {
			// Subcommands share this setup, so only the shell itself fails here
			hooks.OnStart(func() {
				logger.Error("Invalid backend configuration", "error", err)
				os.Exit(1)
			})
			return
		}

		eventBus := events.New()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		backendMetrics := metrics.NewBackend(registry)
		unsubscribeMetrics := backendMetrics.Subscribe(eventBus)

		supervisor := process.NewSupervisor(spec, &process.Options{
			Logger:        logging.GetLogger("process"),
			KillTimeout:   opts.KillTimeoutDuration(),
			OnStateChange: shell.PublishStateChanges(eventBus),
			OnExit:        shell.PublishExits(eventBus),
		})

		windows := shell.NewHeadless(shell.WindowConfig{
			Page:       windowPage(installDir, opts.WindowPage),
			BackendURL: backendCfg.URL(),
			Width:      opts.WindowWidth,
			Height:     opts.WindowHeight,
		}, eventBus, logging.GetLogger("shell"))

		app := shell.New(shell.Options{
			Backend:      supervisor,
			Windows:      windows,
			Prober:       backend.NewProber(backendCfg.HealthURL(), logging.GetLogger("backend")),
			ReadyTimeout: opts.ReadyTimeoutDuration(),
			QuitTimeout:  opts.QuitTimeoutDuration(),
			Logger:       logging.GetLogger("shell"),
		})
		windows.SetOnAllClosed(app.AllWindowsClosed)

		var server *api.Server
		if opts.ControlAddr != "" {
			apiOpts := &api.Options{
				Backend:    supervisor,
				BackendURL: backendCfg.URL(),
				Lifecycle:  app,
				Windows:    windows,
				EventBus:   eventBus,
			}
			if opts.MetricsEnabled {
				apiOpts.PrometheusHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
			}
			server = api.NewServer(apiOpts)
		}

		var watcher *config.Watcher[logging.Config]
		if _, statErr := os.Stat(opts.Config); statErr == nil {
			watcher = config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logging.GetLogger("config"))
			watcher.OnReload(func(cfg logging.Config) {
				logging.UpdateLevels(cfg)
				logger.Info("Logging levels reloaded", "level", cfg.Level)
			})
		}

		sess := newSession(func() error {
			app.Ready()
			runErr := app.Run(context.Background())
			if runErr != nil {
				logger.Error("Shutdown incomplete", "error", runErr)
			}
			return runErr
		}, app.Quit, os.Exit)

		if server != nil {
			sess.onCleanup(func() {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping control API", "error", stopErr)
				}
			})
		}
		if watcher != nil {
			sess.onCleanup(func() { _ = watcher.Stop() })
		}
		sess.onCleanup(unsubscribeMetrics)

		hooks.OnStart(func() {
			if watcher != nil {
				if startErr := watcher.Start(); startErr != nil {
					logger.Warn("Failed to watch config file", "path", opts.Config, "error", startErr)
				}
			}

			if server != nil {
				go func() {
					if startErr := server.Start(opts.ControlAddr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
						logger.Error("Control API stopped", "error", startErr)
					}
				}()
			}

			sess.start()
		})

		hooks.OnStop(func() {
			logger.Info("Signal received, quitting")
			sess.stop()
		})
	})

	rootCmd = cli.Root()
	rootCmd.Use = "backendshell"
	rootCmd.Short = "Desktop shell that supervises a local backend server"
	rootCmd.Version = version.Get().String()

	rootCmd.AddCommand(cmd.CreateCheckCmd())

	cli.Run()
}

// windowPage resolves a relative page against the install directory.
func windowPage(installDir, page string) string {
	if page == "" || filepath.IsAbs(page) {
		return page
	}
	return filepath.Join(installDir, page)
}
