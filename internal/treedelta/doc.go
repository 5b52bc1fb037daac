// Package treedelta computes, for two successive procfs snapshots, the
// number of CPU ticks each process-tree consumed in the interval between
// them.
//
// Vocabulary used throughout this package, fixed to match spec.md:
//
//	total     - a since-creation cumulative value.
//	cumulated - summed over a process and all its descendants in a snapshot.
//	recent    - occurring strictly between the previous and current sample.
//
// The naive approach — sum self-tick deltas over descendants alive at the
// current sample — undercounts: descendants that died during the interval
// have vanished from the current snapshot but still consumed ticks. The
// kernel exposes their lifetime ticks, cumulated, only at their nearest
// living ancestor (cutime/cstime, rolled up at reap time). Compute
// reconciles that cumulated total against the previous sample's equivalent
// total to recover exactly the ticks contributed by descendants that died in
// this interval, without double-counting ticks already attributed in the
// previous interval's result.
package treedelta
