package energy

import (
	"math"

	"github.com/tuxillo-labs/treeload/internal/bytesize"
)

// IOBytes is a single tick's disk I/O byte deltas, attributed to one
// watched tree by its cgroup v2 leaf group.
type IOBytes struct {
	Read  bytesize.Bytes
	Write bytesize.Bytes
}

// Accumulator tracks the running energy estimate for one watched process
// tree. It is not safe for concurrent use; the Broadcast Service keeps one
// per root pid and calls Apply from the single publishing goroutine.
type Accumulator struct {
	cfg    Config
	jCum   float64
	count  int
	sumCPU float64
}

// New creates an accumulator with the given coefficients.
func New(cfg Config) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// Apply runs the power model for one tick and updates the cumulative
// energy total.
//
// treeShare is the tree's CPU load already computed by the tree-delta
// engine for this tick, expressed as a fraction of one core in [0, N] where
// N is the number of cores available to the tree (the same value fed to
// the sum field source, normalized per core). refault and rssChurn are
// cgroup-v2 memory proxies; refault is zero when the leaf group could not
// read workingset_refault (v1-only hosts, or a kernel that doesn't expose
// it), in which case the RAM term comes from RSS churn alone.
func (a *Accumulator) Apply(treeShare float64, io IOBytes, refault, rssChurn bytesize.Bytes, dt float64) Result {
	share := clampNonNeg(treeShare)
	dt = math.Max(dt, 1e-6)

	pdyn := (a.cfg.PMax - a.cfg.PIdle) * pow(share, a.cfg.Gamma)
	pcpu := pdyn

	edisk := a.cfg.ER*float64(io.Read) + a.cfg.EW*float64(io.Write)
	pdisk := edisk / dt

	eram := a.cfg.EMemRef*float64(refault) + a.cfg.EMemRSS*float64(rssChurn)
	pram := eram / dt

	var pidleShare float64
	if a.cfg.Alpha > 0 {
		pidleShare = a.cfg.Alpha * a.cfg.PIdle * share
	}

	ptot := pcpu + pdisk + pram + pidleShare

	a.jCum += ptot * dt
	a.count++
	a.sumCPU += pcpu

	return Result{PCPU: pcpu, PDisk: pdisk, PRAM: pram, PTotal: ptot, JCum: a.jCum}
}

// EnergyCumJ returns the cumulative energy estimate in Joules.
func (a *Accumulator) EnergyCumJ() float64 { return a.jCum }

func clampNonNeg(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	return x
}

func pow(a, b float64) float64 {
	if a <= 0 {
		return 0
	}
	return math.Exp(b * math.Log(a))
}
