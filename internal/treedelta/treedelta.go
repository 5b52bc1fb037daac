package treedelta

import (
	"github.com/tuxillo-labs/treeload/internal/forest"
	"github.com/tuxillo-labs/treeload/internal/procfs"
)

// Compute returns, for every pid present in cur, the number of CPU ticks the
// subtree rooted at that pid consumed during the interval
// (prev.TakenAtTicks, cur.TakenAtTicks]. If prev is nil, it returns each
// pid's since-boot subtree total instead.
//
// Compute is pure and infallible for well-formed snapshots: it performs no
// I/O and never errors. Transient /proc failures are the Sampler's concern
// (a vanished pid is simply absent from whichever snapshot it died before).
func Compute(prev, cur *procfs.Snapshot) map[int32]int64 {
	prevPids, prevChildren := emptySnapshotParts()
	if prev != nil {
		prevPids, prevChildren = prev.Pids, prev.Children
	}

	selfDelta := func(pid int32) int64 {
		curSelf, ok := cur.Pids[pid]
		if !ok {
			return 0
		}
		prevSelf, hadPrev := prevPids[pid]
		if !hadPrev {
			return int64(curSelf.TotalSelfTicks)
		}
		return int64(curSelf.TotalSelfTicks) - int64(prevSelf.TotalSelfTicks)
	}
	aliveSubtreeDelta := forest.Cumulate(cur.Children, selfDelta)

	// pre_prev_ticks_of_dying(p): cumulated, over subtree_prev(p), of the
	// prev.self ticks of descendants that are absent from cur — i.e. the
	// ticks already attributed to them in the previous interval's result,
	// which must not be counted again now that they show up, cumulated,
	// in reaped_delta.
	dyingLeaf := func(pid int32) int64 {
		if _, stillAlive := cur.Pids[pid]; stillAlive {
			return 0
		}
		return int64(prevPids[pid].TotalSelfTicks)
	}
	prePrevTicksOfDying := forest.Cumulate(prevChildren, dyingLeaf)

	out := make(map[int32]int64, len(cur.Pids))
	for pid, sample := range cur.Pids {
		reapedDelta := sample.ReapedSubtreeTicks - prevPids[pid].ReapedSubtreeTicks
		recentlyKilled := reapedDelta - prePrevTicksOfDying[pid]
		out[pid] = aliveSubtreeDelta[pid] + recentlyKilled
	}
	return out
}

func emptySnapshotParts() (map[int32]procfs.PidSample, map[int32][]int32) {
	return map[int32]procfs.PidSample{}, map[int32][]int32{}
}
