//go:build linux

package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/tuxillo-labs/treeload/internal/forest"
)

// PidSample holds one process's CPU tick accounting for a single snapshot.
type PidSample struct {
	// TotalSelfTicks is ticks the process itself has executed (user+kernel)
	// since its creation. Monotone non-decreasing across the process's
	// lifetime.
	TotalSelfTicks uint64
	// ReapedSubtreeTicks is, after finalisation, the sum of raw
	// cutime+cstime over the pid and every descendant present in this same
	// snapshot: the total ticks of every already-dead descendant. Signed
	// because the value participates in subtractions downstream; the
	// kernel does not report negatives in practice.
	ReapedSubtreeTicks int64
}

// Snapshot is a point-in-time reading of every process visible in /proc.
type Snapshot struct {
	// TakenAtTicks is a monotonic clock reading, in the same tick unit as
	// utime/stime, at the moment the snapshot was captured.
	TakenAtTicks uint64
	// Pids maps every visible pid to its sample.
	Pids map[int32]PidSample
	// Children is the parent->children adjacency. Every pid is a key, even
	// with an empty slice; no entry is recorded for a parent pid of 0.
	Children map[int32][]int32
}

// Sampler produces Snapshots by reading /proc.
type Sampler struct {
	procRoot string
}

// New returns a Sampler reading from the standard /proc mount.
func New() *Sampler {
	return &Sampler{procRoot: "/proc"}
}

// Sample enumerates every process directory under /proc and returns a
// well-formed Snapshot. A process that disappears mid-enumeration (its stat
// file fails to read) is silently skipped, per spec: this is equivalent to
// treating it as already dead for this snapshot.
//
// Sample fails only when /proc itself cannot be listed or the monotonic tick
// clock cannot be read — both fatal to a sampling iteration.
func (s *Sampler) Sample() (*Snapshot, error) {
	ticks, err := ticksSinceBoot()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClock, err)
	}

	entries, err := os.ReadDir(s.procRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoProcDir, err)
	}

	pids := make(map[int32]PidSample, len(entries))
	children := make(map[int32][]int32, len(entries))
	rawReaped := make(map[int32]int64, len(entries))

	for _, ent := range entries {
		pid, err := strconv.Atoi(ent.Name())
		if err != nil || pid <= 0 {
			continue
		}

		st, err := readStat(s.procRoot, pid)
		if err != nil {
			// process exited mid-enumeration; omit it, as if already dead.
			continue
		}

		pids[int32(pid)] = PidSample{TotalSelfTicks: st.utime + st.stime}
		rawReaped[int32(pid)] = st.cutime + st.cstime
		if _, ok := children[int32(pid)]; !ok {
			children[int32(pid)] = nil
		}
		if st.ppid != 0 {
			children[int32(st.ppid)] = append(children[int32(st.ppid)], int32(pid))
		}
	}

	cumulatedReaped := forest.Cumulate(children, func(pid int32) int64 { return rawReaped[pid] })
	for pid, sample := range pids {
		sample.ReapedSubtreeTicks = cumulatedReaped[pid]
		pids[pid] = sample
	}

	return &Snapshot{TakenAtTicks: ticks, Pids: pids, Children: children}, nil
}

type statFields struct {
	ppid           int
	utime, stime   uint64
	cutime, cstime int64
}

// readStat parses /proc/<pid>/stat. The comm field (2nd, in parentheses) may
// itself contain spaces or closing parens, so every field is located
// relative to the last ") " in the line rather than by naive whitespace
// splitting from the start.
func readStat(procRoot string, pid int) (statFields, error) {
	f, err := os.Open(fmt.Sprintf("%s/%d/stat", procRoot, pid))
	if err != nil {
		return statFields{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	if !sc.Scan() {
		return statFields{}, ErrNoStat
	}
	line := sc.Text()

	i := strings.LastIndex(line, ") ")
	if i < 0 {
		return statFields{}, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])

	get := func(idx int) (string, error) {
		if idx >= len(fields) {
			return "", ErrShortStat
		}
		return fields[idx], nil
	}

	ppidStr, err := get(1)
	if err != nil {
		return statFields{}, err
	}
	ppid, err := strconv.Atoi(ppidStr)
	if err != nil {
		return statFields{}, fmt.Errorf("%w: ppid: %w", ErrNoStat, err)
	}

	parseU := func(idx int) (uint64, error) {
		s, err := get(idx)
		if err != nil {
			return 0, err
		}
		return strconv.ParseUint(s, 10, 64)
	}
	parseI := func(idx int) (int64, error) {
		s, err := get(idx)
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(s, 10, 64)
	}

	utime, err := parseU(11)
	if err != nil {
		return statFields{}, fmt.Errorf("%w: utime: %w", ErrNoStat, err)
	}
	stime, err := parseU(12)
	if err != nil {
		return statFields{}, fmt.Errorf("%w: stime: %w", ErrNoStat, err)
	}
	cutime, err := parseI(13)
	if err != nil {
		return statFields{}, fmt.Errorf("%w: cutime: %w", ErrNoStat, err)
	}
	cstime, err := parseI(14)
	if err != nil {
		return statFields{}, fmt.Errorf("%w: cstime: %w", ErrNoStat, err)
	}

	return statFields{ppid: ppid, utime: utime, stime: stime, cutime: cutime, cstime: cstime}, nil
}

// ticksSinceBoot reads the monotonic scheduler-tick clock via the same
// times(2) syscall the reference implementation used (through libc); unix.Times
// returns its result in the same clock-tick unit as utime/stime, so no
// CLOCKS_PER_SEC conversion is needed at the call site.
func ticksSinceBoot() (uint64, error) {
	var t unix.Tms
	clock, err := unix.Times(&t)
	if err != nil {
		return 0, err
	}
	return uint64(clock), nil
}
