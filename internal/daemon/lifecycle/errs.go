package lifecycle

import "errors"

var (
	// ErrAlreadyRunning is returned by Acquire when another process already
	// holds the PID-file lock; the caller should run in client mode instead.
	ErrAlreadyRunning = errors.New("lifecycle: daemon already running")

	// ErrNotOwner reports a handle that does not own the PID-file lock. No
	// function in this package returns it; Release reports the underlying
	// close, remove and unlock errors instead.
	ErrNotOwner = errors.New("lifecycle: handle does not own the PID-file lock")
)
