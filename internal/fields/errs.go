package fields

import "errors"

var (
	// ErrEmpty is returned when parsing the empty string.
	ErrEmpty = errors.New("fields: empty field spec")

	// ErrUnknownHead is returned when the leading token is not a
	// recognised source or test-format keyword.
	ErrUnknownHead = errors.New("fields: unknown field head")

	// ErrBadFormat is returned when a format suffix is malformed: a
	// missing precision digit string, a malformed range, or a missing
	// then-clause.
	ErrBadFormat = errors.New("fields: malformed format")
)
