package lifecycle

import "context"

// Control is the shutdown handle passed to every client handler. Calling
// Shutdown cancels the daemon's root context exactly once; this stops the
// publishing loop, closes the broadcast, and causes the listener to stop
// accepting new connections.
type Control struct {
	cancel context.CancelFunc
}

// NewControl derives a cancellable context from parent and a Control that
// cancels it.
func NewControl(parent context.Context) (context.Context, *Control) {
	ctx, cancel := context.WithCancel(parent)
	return ctx, &Control{cancel: cancel}
}

// Shutdown requests daemon termination. Safe to call more than once and
// from multiple goroutines.
func (c *Control) Shutdown() {
	c.cancel()
}
