// Package energy converts a watched process tree's CPU share plus its
// cgroup-v2-attributed I/O and RSS-churn byte deltas into an instantaneous
// watt estimate and a cumulative joule counter, using the idle/dynamic/
// gamma power model the teacher ships in pkg/consumption. It runs for the
// pids a client names when it requests a power/energy field, and, on the
// daemon side, for every requested root pid when --track-energy is set.
package energy

// Config holds the power model's coefficients.
//
// Units:
//   - PIdle/PMax: Watts
//   - Gamma: dimensionless (CPU nonlinearity)
//   - ER/EW: Joules per byte (disk read/write)
//   - EMemRef/EMemRSS: Joules per byte (RAM proxies)
//   - Alpha: fraction of idle power charged to the tree's CPU share [0..1]
type Config struct {
	PIdle   float64
	PMax    float64
	Gamma   float64
	ER      float64
	EW      float64
	EMemRef float64
	EMemRSS float64
	Alpha   float64
}

// DefaultConfig returns the same coefficients the teacher ships.
func DefaultConfig() Config {
	return Config{
		PIdle:   5.0,
		PMax:    20.0,
		Gamma:   1.3,
		ER:      4.8e-8,
		EW:      9.5e-8,
		EMemRef: 7e-10,
		EMemRSS: 3e-10,
		Alpha:   0,
	}
}

// Result is the instantaneous power breakdown for one tick, plus the
// running cumulative joule total at the time it was produced.
type Result struct {
	PCPU   float64 // W
	PDisk  float64 // W
	PRAM   float64 // W
	PTotal float64 // W
	JCum   float64 // J, cumulative since the tree started being watched
}
