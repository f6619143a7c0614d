package document

import "errors"

var (
	// ErrInvalidArgument is returned for malformed schemas and documents that
	// do not conform to their schema.
	ErrInvalidArgument = errors.New("document: invalid argument")

	// ErrFieldNotFound is returned when a field path does not exist.
	ErrFieldNotFound = errors.New("document: field not found")

	// ErrTypeMismatch is returned when a field is read as the wrong type.
	ErrTypeMismatch = errors.New("document: type mismatch")
)
