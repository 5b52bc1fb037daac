package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, spec string) Field {
	t.Helper()
	f, err := Parse(spec)
	require.NoError(t, err)
	return f
}

// TestRender_SpecScenario1 reproduces spec.md §8 scenario 1 verbatim.
func TestRender_SpecScenario1(t *testing.T) {
	spec := []Field{
		mustParse(t, "sum:if_range:1..:x:y"),
		mustParse(t, "all_loads:if_range:..1:x:y"),
		mustParse(t, "sum_t:.3"),
	}

	got := Render(spec, " ", 3, Inputs{Loads: []float32{0.5, 2.0, 3.5}})
	assert.Equal(t, "x x y y 2.000", got)

	got = Render(spec, "", 3, Inputs{Loads: []float32{0.0, 0.0, 1.5}})
	assert.Equal(t, "xxxy0.500", got)

	got = Render(spec, "xxx", 3, Inputs{Loads: nil})
	assert.Equal(t, "yxxx0.000", got)
}

func TestRender_PercentFormat(t *testing.T) {
	spec := []Field{mustParse(t, "sum:%1")}
	got := Render(spec, " ", 1, Inputs{Loads: []float32{0.5}})
	assert.Equal(t, "50.0", got)
}

func TestRender_NaNTreatedAsZeroInSum(t *testing.T) {
	spec := []Field{mustParse(t, "sum:.1")}
	nan := float32(0)
	nan /= nan
	got := Render(spec, " ", 1, Inputs{Loads: []float32{nan, 1.0}})
	assert.Equal(t, "1.0", got)
}

func TestRender_PowerSourceDrawsFromPowerInputs(t *testing.T) {
	spec := []Field{mustParse(t, "power:.2")}
	got := Render(spec, " ", 1, Inputs{Power: []float32{1.5, 2.5}})
	assert.Equal(t, "4.00", got)
}
