package value

import "errors"

var (
	// ErrMissingValue is returned by FromPayload when none of the value fields is set.
	ErrMissingValue = errors.New("value.missing")

	// ErrInvalidJSON is returned by Parse for malformed input.
	ErrInvalidJSON = errors.New("value.invalid_json")

	// ErrUnsupported is returned by Parse for JSON shapes with no engine equivalent
	// (objects, arrays nested deeper than two levels, mixed scalar/array rows).
	ErrUnsupported = errors.New("value.unsupported")

	// ErrOutOfBounds is returned by Array accessors for indexes outside the declared bounds.
	ErrOutOfBounds = errors.New("value.out_of_bounds")
)
