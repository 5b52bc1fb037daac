package fields

// Source selects which values a Field draws from.
type Source int

const (
	// SourceSum emits one value: the sum of loads over every requested pid.
	SourceSum Source = iota
	// SourceAllLoads emits one value per requested pid, in request order.
	SourceAllLoads
	// SourcePower is the energy extension's instantaneous-watts analogue of
	// SourceSum: one summed value, drawn from Inputs.Power rather than
	// Inputs.Loads.
	SourcePower
	// SourceEnergy is the energy extension's cumulative-joules analogue of
	// SourceSum, drawn from Inputs.Energy.
	SourceEnergy
)

// Scale divides a Source's values before formatting.
type Scale int

const (
	// ScaleOfCore leaves values as a fraction of one core (no division).
	ScaleOfCore Scale = iota
	// ScaleOfTotal divides by the number of cores on the host, yielding a
	// fraction of total machine capacity.
	ScaleOfTotal
)

// FormatKind selects how a scaled value is rendered.
type FormatKind int

const (
	// FormatFloat renders the value as fixed-point with Precision digits.
	FormatFloat FormatKind = iota
	// FormatPercent renders the value times 100, with Precision digits.
	FormatPercent
	// FormatIfThenElse renders Then if Test matches the value, else Else.
	FormatIfThenElse
)

// Format describes how one value is turned into text.
type Format struct {
	Kind      FormatKind
	Precision uint8 // meaningful for FormatFloat and FormatPercent
	Test      Test  // meaningful for FormatIfThenElse
	Then      string
	Else      string
}

// Test is a half-open range predicate: [Lo, Hi). A nil bound is unbounded
// on that side.
type Test struct {
	Lo, Hi *float32
}

// Matches reports whether v falls within the half-open range [Lo, Hi).
func (t Test) Matches(v float32) bool {
	if t.Lo != nil && v < *t.Lo {
		return false
	}
	if t.Hi != nil && v >= *t.Hi {
		return false
	}
	return true
}

// Field is one element of a client's --field list.
type Field struct {
	Source Source
	Scale  Scale
	Format Format
}

func f32ptr(v float32) *float32 { return &v }
