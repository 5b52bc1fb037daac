package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuxillo-labs/treeload/internal/bytesize"
)

func TestAccumulator_ZeroShareStillChargesDiskAndRAMTerms(t *testing.T) {
	a := New(DefaultConfig())
	res := a.Apply(0, IOBytes{Read: bytesize.ToBytes(1 << 20)}, 0, 0, 1.0)

	assert.Zero(t, res.PCPU)
	assert.Greater(t, res.PDisk, 0.0)
	assert.Greater(t, res.PTotal, 0.0)
}

func TestAccumulator_FullShareApproachesPMaxMinusPIdle(t *testing.T) {
	cfg := DefaultConfig()
	a := New(cfg)
	res := a.Apply(1.0, IOBytes{}, 0, 0, 1.0)

	assert.InDelta(t, cfg.PMax-cfg.PIdle, res.PCPU, 1e-9)
}

func TestAccumulator_EnergyAccumulatesAcrossTicks(t *testing.T) {
	a := New(DefaultConfig())
	r1 := a.Apply(0.5, IOBytes{}, 0, 0, 1.0)
	r2 := a.Apply(0.5, IOBytes{}, 0, 0, 1.0)

	assert.Greater(t, r2.JCum, r1.JCum)
	assert.Equal(t, a.EnergyCumJ(), r2.JCum)
	assert.InDelta(t, r1.PTotal+r2.PTotal, a.EnergyCumJ(), 1e-9, "dt=1s so joules == sum of watts")
}

func TestAccumulator_NegativeShareClampedToZero(t *testing.T) {
	a := New(DefaultConfig())
	res := a.Apply(-5, IOBytes{}, 0, 0, 1.0)
	assert.Zero(t, res.PCPU)
}

func TestAccumulator_RefaultAndRSSChurnContributeToRAMTerm(t *testing.T) {
	cfg := DefaultConfig()
	a := New(cfg)
	res := a.Apply(0, IOBytes{}, bytesize.ToBytes(1<<20), bytesize.ToBytes(1<<20), 1.0)

	want := cfg.EMemRef*float64(1<<20) + cfg.EMemRSS*float64(1<<20)
	assert.InDelta(t, want, res.PRAM, 1e-9)
}

func TestAccumulator_AlphaZeroMeansNoIdleShare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 0
	a := New(cfg)
	res := a.Apply(0.2, IOBytes{}, 0, 0, 1.0)

	want := (cfg.PMax - cfg.PIdle) * pow(0.2, cfg.Gamma)
	assert.InDelta(t, want, res.PTotal, 1e-9)
}

func TestAccumulator_AlphaChargesIdleShareProportionalToCPUShare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 1.0
	a := New(cfg)
	res := a.Apply(0.5, IOBytes{}, 0, 0, 1.0)

	wantIdle := cfg.Alpha * cfg.PIdle * 0.5
	wantCPU := (cfg.PMax - cfg.PIdle) * pow(0.5, cfg.Gamma)
	assert.InDelta(t, wantCPU+wantIdle, res.PTotal, 1e-9)
}
