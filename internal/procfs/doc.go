// Package procfs samples /proc on Linux to produce a Snapshot: per-pid CPU
// tick counters and the parent->children adjacency across every process
// visible at sampling time.
//
// Snapshot (with its PidSample entries) is what the tree-delta engine
// consumes; it deliberately mirrors the flat, arena-style layout the tree-delta engine
// (package treedelta) expects — a map[pid]PidSample plus a map[pid][]pid
// adjacency, no linked nodes.
//
// Reaped-descendant accounting. The kernel's cutime/cstime fields at a
// process only count descendants reaped directly through that process, not
// transitively through intermediate still-living descendants. Sample
// finalises each pid's ReapedSubtreeTicks by tree-cumulating the raw
// cutime+cstime down the living tree (package internal/forest), so it ends
// up equal to the total ticks of every already-dead descendant of that pid,
// not just its direct children's dead descendants.
package procfs
