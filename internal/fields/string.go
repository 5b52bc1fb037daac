package fields

import (
	"strconv"
)

// String renders f in the canonical grammar form. Parsing the result always
// yields a Field equal to f; this is not necessarily the exact text that
// was originally parsed (if_greater normalises to if_range, and a bare
// head with no format suffix normalises to an explicit one).
func (f Field) String() string {
	return headString(f.Source, f.Scale) + ":" + f.Format.String()
}

func headString(source Source, scale Scale) string {
	var base string
	switch source {
	case SourceSum:
		base = "sum"
	case SourceAllLoads:
		base = "all_loads"
	case SourcePower:
		base = "power"
	case SourceEnergy:
		base = "energy"
	}
	if scale == ScaleOfTotal {
		base += "_t"
	}
	return base
}

// String renders f in its canonical form.
func (f Format) String() string {
	switch f.Kind {
	case FormatFloat:
		return "." + strconv.Itoa(int(f.Precision))
	case FormatPercent:
		return "%" + strconv.Itoa(int(f.Precision))
	case FormatIfThenElse:
		return "if_range:" + boundString(f.Test.Lo) + ".." + boundString(f.Test.Hi) + ":" + f.Then + ":" + f.Else
	default:
		return ""
	}
}

func boundString(b *float32) string {
	if b == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*b), 'g', -1, 32)
}
