package fields

import (
	"fmt"
	"strconv"
	"strings"
)

// defaultFormat is used when a field spec names only a head, with no
// ':format' suffix at all (e.g. the CLI's own default, "sum"). Chosen to
// match the 3-digit fixed-point precision used throughout the field
// grammar's own examples.
func defaultFormat() Format {
	return Format{Kind: FormatFloat, Precision: 3}
}

// Parse parses one field spec per the grammar:
//
//	field      := head (':' format)?
//	head       := 'sum' | 'sum_t' | 'all_loads' | 'all_loads_t'
//	            | 'power' | 'power_t' | 'energy' | 'energy_t'
//	            | test_format
//	format     := '.' DIGITS | '%' DIGITS | test_format
//	test_format:= 'if_range' ':' [LO] '..' [HI] ':' THEN [':' ELSE]
//	            | 'if_greater' ':' THR ':' THEN [':' ELSE]
//
// 'if_greater' is a deprecated alias for 'if_range:THR..:THEN[:ELSE]';
// Parse accepts it but the returned Field always stores the canonical
// if_range form.
func Parse(s string) (Field, error) {
	if s == "" {
		return Field{}, ErrEmpty
	}

	head, rest, hasRest := cutOnce(s, ":")

	switch head {
	case "if_range", "if_greater":
		format, err := parseTestFormat(head, rest, hasRest)
		if err != nil {
			return Field{}, err
		}
		return Field{Source: SourceSum, Scale: ScaleOfCore, Format: format}, nil
	}

	source, scale, ok := sourceAndScale(head)
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownHead, head)
	}
	if !hasRest {
		return Field{Source: source, Scale: scale, Format: defaultFormat()}, nil
	}
	format, err := parseFormat(rest)
	if err != nil {
		return Field{}, err
	}
	return Field{Source: source, Scale: scale, Format: format}, nil
}

func sourceAndScale(head string) (Source, Scale, bool) {
	switch head {
	case "sum":
		return SourceSum, ScaleOfCore, true
	case "sum_t":
		return SourceSum, ScaleOfTotal, true
	case "all_loads":
		return SourceAllLoads, ScaleOfCore, true
	case "all_loads_t":
		return SourceAllLoads, ScaleOfTotal, true
	case "power":
		return SourcePower, ScaleOfCore, true
	case "power_t":
		return SourcePower, ScaleOfTotal, true
	case "energy":
		return SourceEnergy, ScaleOfCore, true
	case "energy_t":
		return SourceEnergy, ScaleOfTotal, true
	default:
		return 0, 0, false
	}
}

// parseFormat parses the ':format' suffix after a source head has already
// been consumed: '.' DIGITS, '%' DIGITS, or a nested test_format.
func parseFormat(rest string) (Format, error) {
	head2, rest2, hasRest2 := cutOnce(rest, ":")
	switch head2 {
	case "if_range", "if_greater":
		return parseTestFormat(head2, rest2, hasRest2)
	}

	if len(rest) < 2 {
		return Format{}, fmt.Errorf("%w: %q", ErrBadFormat, rest)
	}
	switch rest[0] {
	case '.':
		n, err := strconv.ParseUint(rest[1:], 10, 8)
		if err != nil {
			return Format{}, fmt.Errorf("%w: precision %q: %w", ErrBadFormat, rest[1:], err)
		}
		return Format{Kind: FormatFloat, Precision: uint8(n)}, nil
	case '%':
		n, err := strconv.ParseUint(rest[1:], 10, 8)
		if err != nil {
			return Format{}, fmt.Errorf("%w: precision %q: %w", ErrBadFormat, rest[1:], err)
		}
		return Format{Kind: FormatPercent, Precision: uint8(n)}, nil
	default:
		return Format{}, fmt.Errorf("%w: %q", ErrBadFormat, rest)
	}
}

// parseTestFormat parses the body of 'if_range' or 'if_greater' after their
// keyword has already been split off. body is everything after the first
// ':' following the keyword; hasBody is false if there was no such ':' at
// all (e.g. bare "if_greater").
func parseTestFormat(keyword, body string, hasBody bool) (Format, error) {
	if !hasBody {
		return Format{}, fmt.Errorf("%w: %s: missing value", ErrBadFormat, keyword)
	}

	if keyword == "if_greater" {
		parts := strings.SplitN(body, ":", 3)
		if len(parts) < 2 {
			return Format{}, fmt.Errorf("%w: if_greater: missing then-clause", ErrBadFormat)
		}
		thr, err := strconv.ParseFloat(parts[0], 32)
		if err != nil {
			return Format{}, fmt.Errorf("%w: if_greater: threshold %q: %w", ErrBadFormat, parts[0], err)
		}
		then := parts[1]
		otherwise := ""
		if len(parts) == 3 {
			otherwise = parts[2]
		}
		lo := float32(thr)
		return Format{Kind: FormatIfThenElse, Test: Test{Lo: &lo}, Then: then, Else: otherwise}, nil
	}

	// if_range: [LO]..[HI]:THEN[:ELSE]
	parts := strings.SplitN(body, ":", 3)
	if len(parts) < 2 {
		return Format{}, fmt.Errorf("%w: if_range: missing then-clause", ErrBadFormat)
	}
	rangePart := parts[0]
	then := parts[1]
	otherwise := ""
	if len(parts) == 3 {
		otherwise = parts[2]
	}

	bounds := strings.SplitN(rangePart, "..", 2)
	if len(bounds) != 2 {
		return Format{}, fmt.Errorf("%w: if_range: malformed range %q, expected LO..HI", ErrBadFormat, rangePart)
	}
	lo, err := parseOptionalBound(bounds[0])
	if err != nil {
		return Format{}, fmt.Errorf("%w: if_range: low bound: %w", ErrBadFormat, err)
	}
	hi, err := parseOptionalBound(bounds[1])
	if err != nil {
		return Format{}, fmt.Errorf("%w: if_range: high bound: %w", ErrBadFormat, err)
	}

	return Format{Kind: FormatIfThenElse, Test: Test{Lo: lo, Hi: hi}, Then: then, Else: otherwise}, nil
}

func parseOptionalBound(s string) (*float32, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, err
	}
	return f32ptr(float32(v)), nil
}

// cutOnce splits s on the first occurrence of sep, reporting whether sep
// was present at all (mirroring Rust's splitn(2, ':') semantics, which Go's
// strings.Cut implements directly).
func cutOnce(s, sep string) (before, after string, found bool) {
	return strings.Cut(s, sep)
}
