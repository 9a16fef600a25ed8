package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/backendshell/internal/backend"
	"github.com/smazurov/backendshell/internal/config"
	"github.com/smazurov/backendshell/internal/logging"
	"github.com/smazurov/backendshell/internal/process"
	"github.com/spf13/cobra"
)

// CreateCheckCmd creates the check command.
func CreateCheckCmd() *cobra.Command {
	var probe bool
	var start bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show the resolved backend command and check it can run",
		Long: `Resolves the backend command, arguments and working directory from flags, ` +
			`environment and config file, and reports whether the executable and directory exist. ` +
			`With --probe the backend health endpoint is polled; with --start the backend is ` +
			`spawned, probed and stopped again.`,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, opts *config.Options) {
			if err := config.LoadConfig(opts, cmd); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
				os.Exit(1)
			}
			logging.Initialize(opts.Logging())

			ok := runCheck(cmd.Context(), cmd.OutOrStdout(), opts, probe, start)
			if !ok {
				os.Exit(1)
			}
		}),
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Poll the backend health endpoint")
	cmd.Flags().BoolVar(&start, "start", false, "Spawn the backend, probe it and stop it")
	return cmd
}

// runCheck prints the resolved backend and reports whether every check passed.
func runCheck(ctx context.Context, w io.Writer, opts *config.Options, probe, start bool) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	installDir, err := backend.InstallDir()
	if err != nil {
		fmt.Fprintf(w, "install dir: %v\n", err)
		return false
	}

	cfg := opts.Backend()
	spec, err := backend.Resolve(cfg, installDir)
	if err != nil {
		fmt.Fprintf(w, "resolve: %v\n", err)
		return false
	}

	fmt.Fprintf(w, "command:  %s\n", spec)
	fmt.Fprintf(w, "dir:      %s\n", spec.Dir)
	fmt.Fprintf(w, "url:      %s\n", cfg.URL())
	fmt.Fprintf(w, "health:   %s\n", cfg.HealthURL())

	ok := true
	if path, lookErr := exec.LookPath(spec.Command); lookErr != nil {
		fmt.Fprintf(w, "executable: not found (%v)\n", lookErr)
		ok = false
	} else {
		fmt.Fprintf(w, "executable: %s\n", path)
	}
	if fi, statErr := os.Stat(spec.Dir); statErr != nil || !fi.IsDir() {
		fmt.Fprintf(w, "dir: missing\n")
		ok = false
	}

	if !probe && !start {
		return ok
	}

	timeout := opts.ReadyTimeoutDuration()
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	prober := backend.NewProber(cfg.HealthURL(), logging.GetLogger("backend"))

	if !start {
		return probeOnce(ctx, w, prober, timeout) && ok
	}

	sup := process.NewSupervisor(spec, &process.Options{
		Logger:      logging.GetLogger("process"),
		KillTimeout: opts.KillTimeoutDuration(),
	})
	if startErr := sup.Start(); startErr != nil {
		fmt.Fprintf(w, "start: %v\n", startErr)
		return false
	}
	ready := probeOnce(ctx, w, prober, timeout)

	sup.Stop()
	waitCtx, cancel := context.WithTimeout(ctx, opts.QuitTimeoutDuration())
	defer cancel()
	if waitErr := sup.Wait(waitCtx); waitErr != nil {
		fmt.Fprintf(w, "stop: backend did not exit: %v\n", waitErr)
		return false
	}
	if exit := sup.Info().LastExit; exit != nil {
		fmt.Fprintf(w, "stop: %s\n", exit)
	}
	return ready && ok
}

func probeOnce(ctx context.Context, w io.Writer, prober *backend.Prober, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := prober.WaitReady(ctx); err != nil {
		fmt.Fprintf(w, "probe: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "probe: ready after %s\n", time.Since(start).Round(time.Millisecond))
	return true
}
