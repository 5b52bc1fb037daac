// Command treeload reports the CPU load of process trees and streams
// updates at a fixed cadence. Run with one or more pids to act as a
// client, spawning a background daemon on first use if one isn't already
// running; the daemon also exists as a hidden "daemon" subcommand for
// anyone who wants to start or supervise it directly.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultSocketPath = "/tmp/treeload.sock"
	defaultPidPath    = "/tmp/treeload.pid"
	defaultInterval   = time.Second
)

func numCPU() int { return runtime.NumCPU() }

func main() {
	var (
		c           clientOpts
		d           daemonOpts
		timeoutSecs int
	)

	root := &cobra.Command{
		Use:   "treeload PID [PID..PID]...",
		Short: "Report CPU load of process trees",
		Long: `treeload measures CPU load of arbitrary process subtrees on a Unix-like
host and streams results at a fixed cadence. Name one or more process
identifiers (or "PID..PID" ranges); treeload reports, once per sampling
interval, the fraction of CPU time consumed since the previous sample by
each named process together with all of its descendants.

Examples:
  treeload 1234
  treeload -f sum_t -f all_loads -t 10 1234 5678
  treeload -p 1234..1240`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pids, err := parsePIDs(args)
			if err != nil {
				return err
			}
			c.pids = pids
			c.timeout = time.Duration(timeoutSecs) * time.Second
			if c.socketPath == "" {
				c.socketPath = defaultSocketPath
			}
			if c.pidPath == "" {
				c.pidPath = defaultPidPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runClient(ctx, c)
		},
	}

	root.Flags().IntVarP(&timeoutSecs, "timeout", "t", 0, "total wall-clock limit on output, in seconds (0 = unlimited)")
	root.Flags().StringArrayVarP(&c.fieldSpecs, "field", "f", nil, "output field spec, repeatable (default: sum, all_loads)")
	root.Flags().StringVarP(&c.separator, "separator", "s", " ", "separator between rendered fields")
	root.Flags().BoolVarP(&c.power, "power", "p", false, "shorthand for --field power:.3 --field energy:.3")
	root.Flags().StringVar(&c.socketPath, "socket", defaultSocketPath, "daemon socket path")
	root.Flags().StringVar(&c.pidPath, "pidfile", defaultPidPath, "daemon PID-file path")
	root.Flags().StringVar(&c.csvPath, "csv", "", "write per-tick rows to CSV file")
	root.Flags().StringVar(&c.jsonPath, "json", "", "write per-tick rows to JSON file")
	root.Flags().StringVar(&c.htmlPath, "html", "", "write per-tick rows and summary to HTML file")

	daemonCmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Run the treeload sampling daemon in the foreground",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.socketPath == "" {
				d.socketPath = defaultSocketPath
			}
			if d.pidPath == "" {
				d.pidPath = defaultPidPath
			}
			if d.logLevel == "" {
				d.logLevel = os.Getenv("TREELOAD_LOG")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, d)
		},
	}
	daemonCmd.Flags().DurationVar(&d.interval, "interval", defaultInterval, "sampling interval")
	daemonCmd.Flags().StringVar(&d.socketPath, "socket", defaultSocketPath, "client socket path")
	daemonCmd.Flags().StringVar(&d.pidPath, "pidfile", defaultPidPath, "PID-file path")
	daemonCmd.Flags().StringVar(&d.logLevel, "log-level", "", "debug|info|warn|error|none (default: $TREELOAD_LOG, else none)")
	daemonCmd.Flags().BoolVar(&d.trackEnergy, "track-energy", false, "attribute CPU/disk/RAM energy per watched tree via cgroup v2 (opt-in)")
	daemonCmd.Flags().DurationVar(&d.energyReport, "energy-report-interval", 30*time.Second, "how often tracked-energy summaries are logged")

	root.AddCommand(daemonCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
