package lifecycle

import (
	"fmt"
	"net"
	"os"

	"github.com/gofrs/flock"
)

// Instance is held by the single process that won the race to become the
// daemon: it owns the PID-file lock and the bound client-facing listener.
type Instance struct {
	lock     *flock.Flock
	pidPath  string
	sockPath string
	Listener *net.UnixListener
}

// Acquire attempts to become the daemon for the given pid-file/socket pair.
// It returns ErrAlreadyRunning, never blocking, if another process already
// holds the pid-file lock — the caller should fall back to client mode
// against the existing daemon's socket in that case.
func Acquire(pidPath, sockPath string) (*Instance, error) {
	lk := flock.New(pidPath)
	got, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lifecycle: acquire pid-file lock %s: %w", pidPath, err)
	}
	if !got {
		return nil, ErrAlreadyRunning
	}

	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		_ = lk.Unlock()
		return nil, fmt.Errorf("lifecycle: write pid file: %w", err)
	}

	// Only the lock owner may remove a stale socket left by a crashed
	// daemon; holding the lock here guarantees no other process is racing
	// to do the same thing.
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		_ = lk.Unlock()
		return nil, fmt.Errorf("lifecycle: remove stale socket %s: %w", sockPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", sockPath)
	if err != nil {
		_ = lk.Unlock()
		return nil, fmt.Errorf("lifecycle: resolve socket address: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		_ = lk.Unlock()
		return nil, fmt.Errorf("lifecycle: bind socket %s: %w", sockPath, err)
	}

	return &Instance{lock: lk, pidPath: pidPath, sockPath: sockPath, Listener: ln}, nil
}

// Release closes the listener, removes the socket and PID files, and
// releases the flock. It is idempotent-safe to call once during clean
// daemon shutdown; callers must not use the Instance afterwards.
func (i *Instance) Release() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(i.Listener.Close())
	record(os.Remove(i.sockPath))
	record(i.lock.Unlock())
	record(os.Remove(i.pidPath))

	return firstErr
}
