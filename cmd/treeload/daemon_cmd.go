package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/tuxillo-labs/treeload/internal/daemon"
	"github.com/tuxillo-labs/treeload/internal/daemon/lifecycle"
	"github.com/tuxillo-labs/treeload/internal/energy"
	"github.com/tuxillo-labs/treeload/internal/procfs"
)

type daemonOpts struct {
	socketPath   string
	pidPath      string
	interval     time.Duration
	logLevel     string
	trackEnergy  bool
	energyReport time.Duration
}

// runDaemon is the hidden "daemon" subcommand's entrypoint. It acquires the
// singleton lock, binds the client socket, and serves connections until its
// context is cancelled or the sampling loop hits a fatal error.
func runDaemon(ctx context.Context, o daemonOpts) error {
	logger := newLogger(o.logLevel)

	inst, err := lifecycle.Acquire(o.pidPath, o.socketPath)
	if err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyRunning) {
			logger.Info("daemon already running, exiting")
			return nil
		}
		return fmt.Errorf("daemon: %w", err)
	}
	defer inst.Release()

	ctx, control := lifecycle.NewControl(ctx)

	svc := daemon.NewService(procfs.New(), o.interval, logger)

	var tracker *energyTracker
	if o.trackEnergy {
		tracker = newEnergyTracker(energy.NewManager(energy.DefaultConfig()), logger, o.energyReport)
		svc.SetObserver(tracker.observe)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	runErrCh := make(chan error, 1)
	go func() {
		defer wg.Done()
		runErrCh <- svc.Run(ctx)
	}()

	go acceptLoop(ctx, inst.Listener, svc, tracker, control, logger)

	<-ctx.Done()
	_ = inst.Listener.Close()
	wg.Wait()

	if err := <-runErrCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func acceptLoop(ctx context.Context, ln net.Listener, svc *daemon.Service, tracker *energyTracker, control *lifecycle.Control, logger *slog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("accept failed", "err", err)
			return
		}

		go func() {
			var requested []int32
			onPids := func(pids []int32) {
				requested = pids
				if tracker != nil {
					for _, pid := range pids {
						tracker.watch(pid)
					}
				}
			}

			err := svc.HandleConnWithHook(ctx, conn, logger, onPids)

			if tracker != nil {
				for _, pid := range requested {
					tracker.unwatch(pid)
				}
			}

			if err != nil && errors.Is(err, daemon.ErrBroadcastClosed) {
				control.Shutdown()
				return
			}
			if err != nil && ctx.Err() == nil {
				logger.Debug("client handler ended", "err", err)
			}
		}()
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelError + 4 // "none": above Error, discards everything
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
