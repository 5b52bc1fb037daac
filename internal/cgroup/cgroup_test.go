//go:build linux

package cgroup

import "testing"

// Detect reads the live /proc/self/mountinfo, so there's little to assert
// beyond "it doesn't error and returns a sensible string" on whatever
// kernel runs the test.
func TestDetect_ReturnsWithoutError(t *testing.T) {
	v, detail, err := Detect()
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if v < Unsupported || v > Hybrid {
		t.Fatalf("Detect: unexpected version %d", v)
	}
	if detail == "" {
		t.Fatalf("Detect: empty detail string")
	}
}

func TestVersion_String(t *testing.T) {
	cases := map[Version]string{
		Unsupported: "unsupported",
		V1:          "cgroup v1",
		V2:          "cgroup v2",
		Hybrid:      "cgroup hybrid",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("Version(%d).String() = %q, want %q", v, got, want)
		}
	}
}
