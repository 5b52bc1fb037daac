package procfs

import "errors"

var (
	// ErrNoStat indicates that /proc/<pid>/stat was empty or malformed.
	ErrNoStat = errors.New("procfs: malformed or empty stat")

	// ErrShortStat indicates that /proc/<pid>/stat had fewer fields than expected.
	ErrShortStat = errors.New("procfs: short stat")

	// ErrNoProcDir means /proc itself could not be enumerated.
	ErrNoProcDir = errors.New("procfs: cannot enumerate /proc")

	// ErrClock means the monotonic tick clock could not be read.
	ErrClock = errors.New("procfs: cannot read tick clock")

	// ErrNoRSS means neither smaps_rollup nor statm could be read for a pid.
	ErrNoRSS = errors.New("procfs: cannot determine RSS")
)
