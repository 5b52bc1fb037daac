//go:build linux

package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadIO reads /proc/<pid>/io and returns its read_bytes/write_bytes
// counters, the per-pid disk I/O figures the energy extension's
// client-side estimate folds in when it can (a pid the client lacks
// permission to read, or one that has already exited, simply reports an
// error and the caller falls back to a zero delta for that tick).
func ReadIO(pid int32) (readBytes, writeBytes uint64, err error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/io", pid))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "read_bytes:"):
			readBytes, _ = strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "read_bytes:")), 10, 64)
		case strings.HasPrefix(line, "write_bytes:"):
			writeBytes, _ = strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "write_bytes:")), 10, 64)
		}
	}
	return readBytes, writeBytes, sc.Err()
}

// ReadRSS returns a pid's resident set size in bytes, preferring
// smaps_rollup's aggregated "Rss:" line (available since kernel 4.14) and
// falling back to statm's resident page count times the page size.
func ReadRSS(pid int32) (uint64, error) {
	if f, err := os.Open(fmt.Sprintf("/proc/%d/smaps_rollup", pid)); err == nil {
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "Rss:") {
				if fs := strings.Fields(sc.Text()); len(fs) >= 2 {
					if kb, err := strconv.ParseUint(fs[1], 10, 64); err == nil {
						return kb * 1024, nil
					}
				}
			}
		}
	}

	if b, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid)); err == nil {
		if fs := strings.Fields(string(b)); len(fs) >= 2 {
			if pages, err := strconv.ParseUint(fs[1], 10, 64); err == nil {
				return pages * uint64(os.Getpagesize()), nil
			}
		}
	}

	return 0, ErrNoRSS
}
