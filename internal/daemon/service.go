package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tuxillo-labs/treeload/internal/procfs"
	"github.com/tuxillo-labs/treeload/internal/treedelta"
)

// LoadMap is one published value: the per-core load of every pid visible in
// the most recent sample, keyed by pid.
type LoadMap map[int32]float32

// Observer is called once per sampling tick, after the load map for that
// tick has been computed but before it is published. It is the extension
// point the opt-in energy estimator (internal/energy) attaches to: a caller
// that never registers one pays no cost beyond a nil check.
type Observer func(cur *procfs.Snapshot, elapsedTicks uint64, loads LoadMap)

// Sampler is the subset of procfs.Sampler the Service depends on.
type Sampler interface {
	Sample() (*procfs.Snapshot, error)
}

// Service owns the periodic sample-delta-publish loop described in spec.md
// §4.3 and fans its output out through a Broadcast.
type Service struct {
	sampler   Sampler
	interval  time.Duration
	broadcast *Broadcast[LoadMap]
	logger    *slog.Logger
	observer  Observer
}

// NewService constructs a Service. logger may be nil, in which case
// slog.Default() is used.
func NewService(sampler Sampler, interval time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sampler:   sampler,
		interval:  interval,
		broadcast: NewBroadcast[LoadMap](),
		logger:    logger,
	}
}

// SetObserver installs the tick observer. Not safe to call concurrently
// with Run.
func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// Broadcast returns the service's publication channel, for client handlers
// to subscribe to.
func (s *Service) Broadcast() *Broadcast[LoadMap] {
	return s.broadcast
}

// Run drives the sample loop until ctx is cancelled or a fatal sampling
// error occurs (failure to enumerate /proc or read the tick clock). In
// either case the broadcast is closed before Run returns, which is the
// signal every connected handler uses to trigger daemon shutdown.
func (s *Service) Run(ctx context.Context) error {
	defer s.broadcast.Close()

	var prev *procfs.Snapshot
	for {
		deadline := time.Now().Add(s.interval)

		cur, err := s.sampler.Sample()
		if err != nil {
			return fmt.Errorf("daemon: fatal sampling error: %w", err)
		}

		delta := treedelta.Compute(prev, cur)

		var elapsed uint64
		if prev != nil {
			elapsed = cur.TakenAtTicks - prev.TakenAtTicks
		} else {
			elapsed = cur.TakenAtTicks
		}

		loads := make(LoadMap, len(delta))
		for pid, ticks := range delta {
			if elapsed == 0 {
				loads[pid] = 0
				continue
			}
			loads[pid] = float32(ticks) / float32(elapsed)
		}

		if s.observer != nil {
			s.observer(cur, elapsed, loads)
		}

		s.broadcast.Publish(loads)
		prev = cur

		s.logger.Debug("published tick", "pids", len(loads), "elapsed_ticks", elapsed)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(deadline)):
		}
	}
}
