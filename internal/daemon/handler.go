package daemon

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
)

// HandleConn serves a single client connection end to end: read its watched
// pids until it half-closes its write side, then write one frame per
// published tick until the connection errors, ctx is cancelled, or the
// broadcast closes.
//
// HandleConn returns ErrBroadcastClosed when the producer has shut down;
// the caller (the daemon collaborator's accept loop) is expected to treat
// that as the trigger to shut the whole daemon down, per spec.md §4.3's
// "handler triggers daemon shutdown via the daemon control interface".
// Every other returned error is scoped to this one connection.
func (s *Service) HandleConn(ctx context.Context, conn net.Conn, logger *slog.Logger) error {
	return s.handleConn(ctx, conn, logger, nil)
}

// HandleConnWithHook behaves like HandleConn but also calls onPids, exactly
// once and before the first frame is sent, with the pids this connection
// requested. The energy tracker uses this to reference-count which root
// pids are currently of interest to at least one connected client; a nil
// onPids makes this identical to HandleConn.
func (s *Service) HandleConnWithHook(ctx context.Context, conn net.Conn, logger *slog.Logger, onPids func([]int32)) error {
	return s.handleConn(ctx, conn, logger, onPids)
}

func (s *Service) handleConn(ctx context.Context, conn net.Conn, logger *slog.Logger, onPids func([]int32)) error {
	defer conn.Close()
	if logger == nil {
		logger = s.logger
	}

	pids, err := ReadPids(conn)
	if err != nil {
		return err
	}
	if onPids != nil {
		onPids(pids)
	}

	sub := s.broadcast.Subscribe()
	w := bufio.NewWriter(conn)

	for {
		loads, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrLagged) {
				logger.Warn("client handler lagged, resynchronising")
				continue
			}
			return err
		}

		if err := WriteFrame(w, pids, loads); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
