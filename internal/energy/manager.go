package energy

import (
	"sync"

	"github.com/tuxillo-labs/treeload/internal/bytesize"
	"github.com/tuxillo-labs/treeload/internal/cgroup"
)

// Sample is Manager.Apply's result for one watched tree on one tick. It is
// not published to clients; only the load map goes over the wire.
type Sample struct {
	Result
	CgroupAvailable bool
}

// tree holds the per-root-pid state the Manager keeps alive while at least
// one Watch on that pid is still unmatched by an Unwatch.
type tree struct {
	refs int
	acc  *Accumulator
	leaf *cgroup.Leaf // nil when cgroup v2 isn't available; CPU-only estimate
}

// Manager lazily creates one Accumulator (and, when cgroup v2 is available,
// one leaf cgroup) per watched root pid, reference-counted across Watch
// calls (the daemon's energy tracker makes one per connected client that
// requested that pid), and tears both down once the last Watch is matched
// by an Unwatch.
//
// The tree map is guarded by a mutex, so Watch and Unwatch may be called
// from client-handler goroutines; Adopt and Apply are called from the
// Broadcast Service's single publishing loop.
type Manager struct {
	mu    sync.Mutex
	cfg   Config
	trees map[int32]*tree
}

// NewManager creates a Manager using cfg for every tree it watches.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, trees: make(map[int32]*tree)}
}

// Watch increments the watch count for rootPid, creating its Accumulator
// (and attempting to create a leaf cgroup) on first watch.
func (m *Manager) Watch(rootPid int32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trees[rootPid]
	if !ok {
		t = &tree{acc: New(m.cfg)}
		if leaf, err := cgroup.NewLeaf(rootPid); err == nil {
			t.leaf = leaf
		}
		m.trees[rootPid] = t
	}
	t.refs++
}

// Unwatch decrements the watch count for rootPid, tearing the tree down
// (and closing its leaf cgroup) once no client references it any longer.
func (m *Manager) Unwatch(rootPid int32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trees[rootPid]
	if !ok {
		return
	}
	t.refs--
	if t.refs > 0 {
		return
	}
	if t.leaf != nil {
		_ = t.leaf.Close()
	}
	delete(m.trees, rootPid)
}

// Adopt moves pid, a member of rootPid's tree, into rootPid's leaf cgroup
// so its I/O and memory-refault bytes are attributed to that tree. A no-op
// when rootPid isn't being watched or cgroup v2 is unavailable.
func (m *Manager) Adopt(rootPid, pid int32) {
	m.mu.Lock()
	t, ok := m.trees[rootPid]
	m.mu.Unlock()
	if !ok || t.leaf == nil {
		return
	}
	_ = t.leaf.Adopt(pid)
}

// Apply runs the power model for rootPid's tree on this tick, feeding in
// its tree-delta engine CPU share plus, when a leaf cgroup exists for this
// tree, the I/O and memory deltas read straight from that leaf's
// io.stat/memory.stat — the cgroup-aggregated equivalent of the teacher's
// per-pid ReadProcIO/ReadProcRSS, summed by the kernel across every pid
// adopted into the tree instead of by this process. cpu.stat is never read
// for the CPU term: treeShare (the ground-truth tree CPU share already
// computed for the core load fields) is used in its place, removing the
// teacher's redundant second CPU-accounting path. callerIO/callerRSSChurn
// are used as-is when no leaf cgroup exists (cgroup v2 unavailable) or its
// Stat fails; the Sample then has CgroupAvailable false, no refault term,
// and disk/RAM terms only from the caller's values (zero when the caller
// passes zeros, as the daemon's energy tracker does).
func (m *Manager) Apply(rootPid int32, treeShare float64, callerIO IOBytes, callerRSSChurn bytesize.Bytes, dt float64) Sample {
	m.mu.Lock()
	t, ok := m.trees[rootPid]
	m.mu.Unlock()
	if !ok {
		return Sample{}
	}

	var (
		refault         bytesize.Bytes
		io              = callerIO
		rssChurn        = callerRSSChurn
		cgroupAvailable bool
	)
	if t.leaf != nil {
		if stats, err := t.leaf.Stat(); err == nil {
			refault = bytesize.ToBytes(stats.RefaultDelta)
			rssChurn = bytesize.ToBytes(stats.RSSChurn)
			io = IOBytes{Read: bytesize.ToBytes(stats.ReadBytes), Write: bytesize.ToBytes(stats.WriteBytes)}
			cgroupAvailable = true
		}
	}

	res := t.acc.Apply(treeShare, io, refault, rssChurn, dt)
	return Sample{Result: res, CgroupAvailable: cgroupAvailable}
}

// Watched reports whether rootPid currently has at least one watcher.
func (m *Manager) Watched(rootPid int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.trees[rootPid]
	return ok
}
