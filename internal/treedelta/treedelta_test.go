package treedelta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuxillo-labs/treeload/internal/procfs"
)

func snap(ticks uint64, pids map[int32]procfs.PidSample, children map[int32][]int32) *procfs.Snapshot {
	return &procfs.Snapshot{TakenAtTicks: ticks, Pids: pids, Children: children}
}

// TestCompute_SpecScenario6 reproduces spec.md §8 scenario 6 verbatim: root
// 1, child 2 alive in both snapshots, child 3 of 2 present only in prev
// (self=40) and reaped into 1's cumulated total by the time of cur.
func TestCompute_SpecScenario6(t *testing.T) {
	prev := snap(0,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 100, ReapedSubtreeTicks: 0},
			2: {TotalSelfTicks: 50, ReapedSubtreeTicks: 0},
			3: {TotalSelfTicks: 40, ReapedSubtreeTicks: 0},
		},
		map[int32][]int32{1: {2}, 2: {3}, 3: {}},
	)
	cur := snap(100,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 100, ReapedSubtreeTicks: 40}, // cumulated from 2's subtree
			2: {TotalSelfTicks: 80, ReapedSubtreeTicks: 40},  // 3's ticks reaped directly into 2, grew self by 30
		},
		map[int32][]int32{1: {2}, 2: {}},
	)

	got := Compute(prev, cur)
	assert.Equal(t, int64(30), got[1])
	assert.Equal(t, int64(30), got[2])

	// load = tick_delta / ticks elapsed
	dt := cur.TakenAtTicks - prev.TakenAtTicks
	load := float64(got[1]) / float64(dt)
	assert.InDelta(t, 0.30, load, 1e-9)
}

func TestCompute_NoPrev_SinceBootTotal(t *testing.T) {
	cur := snap(500,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 100, ReapedSubtreeTicks: 20},
			2: {TotalSelfTicks: 30, ReapedSubtreeTicks: 0},
		},
		map[int32][]int32{1: {2}, 2: {}},
	)
	got := Compute(nil, cur)
	// subtree(1) = self(1)+self(2)+reaped(1) = 100+30+20
	assert.Equal(t, int64(150), got[1])
	assert.Equal(t, int64(30), got[2])
}

func TestCompute_IdenticalSnapshots_ZeroDelta(t *testing.T) {
	s := snap(100,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 100, ReapedSubtreeTicks: 20},
			2: {TotalSelfTicks: 30, ReapedSubtreeTicks: 0},
		},
		map[int32][]int32{1: {2}, 2: {}},
	)
	got := Compute(s, s)
	for pid := range s.Pids {
		assert.Equal(t, int64(0), got[pid], "pid %d", pid)
	}
}

func TestCompute_ChildOrderIrrelevant(t *testing.T) {
	prev := snap(0,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 0}, 2: {TotalSelfTicks: 0}, 3: {TotalSelfTicks: 0},
		},
		map[int32][]int32{1: {2, 3}, 2: {}, 3: {}},
	)
	curA := snap(10,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 1}, 2: {TotalSelfTicks: 2}, 3: {TotalSelfTicks: 3},
		},
		map[int32][]int32{1: {2, 3}, 2: {}, 3: {}},
	)
	curB := snap(10,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 1}, 2: {TotalSelfTicks: 2}, 3: {TotalSelfTicks: 3},
		},
		map[int32][]int32{1: {3, 2}, 2: {}, 3: {}},
	)
	gotA := Compute(prev, curA)
	gotB := Compute(prev, curB)
	assert.Equal(t, gotA, gotB)
}

func TestCompute_DescendantCreatedAndReapedBetweenSamples(t *testing.T) {
	// pid 2 spawns pid 5, which lives and dies entirely between samples.
	prev := snap(0,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 0}, 2: {TotalSelfTicks: 0},
		},
		map[int32][]int32{1: {2}, 2: {}},
	)
	cur := snap(10,
		map[int32]procfs.PidSample{
			1: {TotalSelfTicks: 0, ReapedSubtreeTicks: 7}, // 5's lifetime ticks rolled up
			2: {TotalSelfTicks: 0, ReapedSubtreeTicks: 7},
		},
		map[int32][]int32{1: {2}, 2: {}},
	)
	got := Compute(prev, cur)
	assert.Equal(t, int64(7), got[1])
	assert.Equal(t, int64(7), got[2])
}

func TestCompute_ReusedPidCanGoNegative(t *testing.T) {
	// spec.md §9 Open Question: a pid reused within one interval is not
	// special-cased; the subtraction is returned as-is, even if negative.
	prev := snap(0,
		map[int32]procfs.PidSample{1: {TotalSelfTicks: 1000}},
		map[int32][]int32{1: {}},
	)
	cur := snap(10,
		map[int32]procfs.PidSample{1: {TotalSelfTicks: 5}}, // pid 1 reused by a fresh process
		map[int32][]int32{1: {}},
	)
	got := Compute(prev, cur)
	assert.Equal(t, int64(-995), got[1])
}

func TestCompute_NewPidNotInPrev(t *testing.T) {
	prev := snap(0, map[int32]procfs.PidSample{1: {TotalSelfTicks: 0}}, map[int32][]int32{1: {2}, 2: {}})
	require.NotNil(t, prev)
	cur := snap(10,
		map[int32]procfs.PidSample{1: {TotalSelfTicks: 0}, 2: {TotalSelfTicks: 4}},
		map[int32][]int32{1: {2}, 2: {}},
	)
	got := Compute(prev, cur)
	assert.Equal(t, int64(4), got[1])
	assert.Equal(t, int64(4), got[2])
}
