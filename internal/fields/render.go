package fields

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Inputs bundles the per-pid value slices a rendered line may draw from,
// all aligned to the same requested-pid order. Power and Energy are nil
// for a client that never asked for the energy extension; rendering a
// Field with a power/energy Source against nil Inputs yields 0 for the
// summed value rather than panicking.
type Inputs struct {
	Loads  []float32
	Power  []float32
	Energy []float32
}

// Render formats one output line for a single sampling tick: each Field in
// spec produces one or more values (AllLoads expands to one per pid), each
// scaled and formatted independently, joined by sep in field order. cores
// is the host's CPU count, used by ScaleOfTotal.
func Render(spec []Field, sep string, cores int, in Inputs) string {
	var b strings.Builder
	first := true
	for _, field := range spec {
		base := base(field.Source, in)
		sum := nanSafeSum(base)

		scale := float32(1)
		if field.Scale == ScaleOfTotal {
			scale = float32(cores)
		}

		var values []float32
		if field.Source == SourceAllLoads {
			values = make([]float32, len(base))
			copy(values, base)
		} else {
			values = []float32{sum}
		}

		for _, v := range values {
			if !first {
				b.WriteString(sep)
			}
			b.WriteString(formatValue(field.Format, v/scale))
			first = false
		}
	}
	return b.String()
}

func base(source Source, in Inputs) []float32 {
	switch source {
	case SourceAllLoads, SourceSum:
		return in.Loads
	case SourcePower:
		return in.Power
	case SourceEnergy:
		return in.Energy
	default:
		return nil
	}
}

func nanSafeSum(values []float32) float32 {
	var sum float32
	for _, v := range values {
		if !math.IsNaN(float64(v)) {
			sum += v
		}
	}
	return sum
}

func formatValue(f Format, v float32) string {
	switch f.Kind {
	case FormatFloat:
		return strconv.FormatFloat(float64(v), 'f', int(f.Precision), 32)
	case FormatPercent:
		return strconv.FormatFloat(float64(v)*100, 'f', int(f.Precision), 32)
	case FormatIfThenElse:
		if f.Test.Matches(v) {
			return f.Then
		}
		return f.Else
	default:
		return fmt.Sprintf("%v", v)
	}
}
