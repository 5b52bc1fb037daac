package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePIDs accepts a list of tokens, each either a bare pid ("123") or an
// inclusive range ("20..22"), and expands them into an ordered slice,
// preserving input order (ranges expand inline). Adapted from the teacher's
// pkg/system/util.ParsePIDs, narrowed to the int32 pids treeload's wire
// protocol uses.
func parsePIDs(args []string) ([]int32, error) {
	var out []int32
	for _, raw := range args {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(tok, ".."); ok {
			loN, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("bad range: %q", tok)
			}
			hiN, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("bad range: %q", tok)
			}
			if loN > hiN {
				return nil, fmt.Errorf("bad range: %q", tok)
			}
			for n := loN; n <= hiN; n++ {
				out = append(out, int32(n))
			}
			continue
		}

		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad pid: %q", tok)
		}
		out = append(out, int32(n))
	}
	return out, nil
}
