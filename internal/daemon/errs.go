package daemon

import "errors"

var (
	// ErrBroadcastClosed is returned to a subscriber once the publisher has
	// shut down; no further values will ever be published.
	ErrBroadcastClosed = errors.New("daemon: broadcast closed")

	// ErrLagged is returned to a subscriber that failed to consume a
	// published value before the next one overwrote it.
	ErrLagged = errors.New("daemon: subscriber lagged, resynchronised")

	// ErrNoTick reports that no sample has been published. No function in
	// this package returns it.
	ErrNoTick = errors.New("daemon: no sample published yet")
)
