package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_ParseStringParseYieldsEqualField(t *testing.T) {
	specs := []string{
		"sum", "all_loads", "sum_t", "all_loads_t",
		"sum:.3", "sum_t:.0", "all_loads:%2",
		"sum:if_range:1..:x:y", "all_loads:if_range:..1:x:y",
		"if_range:1..2:then:else", "if_range:..:t:e",
		"power:.3", "energy_t:%1",
	}
	for _, spec := range specs {
		f, err := Parse(spec)
		require.NoError(t, err, spec)

		again, err := Parse(f.String())
		require.NoError(t, err, "re-parsing %q (rendered from %q)", f.String(), spec)
		assert.Equal(t, f, again, "spec %q", spec)
	}
}

func TestRoundTrip_IfGreaterNormalisesToIfRange(t *testing.T) {
	f, err := Parse("if_greater:3:then:x")
	require.NoError(t, err)
	assert.Contains(t, f.String(), "if_range:")
	assert.NotContains(t, f.String(), "if_greater")
}
