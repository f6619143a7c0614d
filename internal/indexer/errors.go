package indexer

import "errors"

var (
	// ErrInvalidArgument is returned for bad index descriptors, operands
	// whose type cannot be compared with the column, and documents whose
	// field does not match the indexed type.
	ErrInvalidArgument = errors.New("indexer: invalid argument")

	// ErrOrderViolation is returned when Insert is called with a position
	// other than the next expected one.
	ErrOrderViolation = errors.New("indexer: document position out of order")

	// ErrNoIndex is returned when a constraint names a column without an index.
	ErrNoIndex = errors.New("indexer: no index on column")

	// ErrUnsupportedOperator is returned for operators an indexer cannot evaluate.
	ErrUnsupportedOperator = errors.New("indexer: unsupported operator")
)
