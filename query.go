package jonoondb

import (
	"fmt"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/indexer"
)

type (
	// IndexInfo describes an index to create on a collection column.
	IndexInfo = indexer.IndexInfo
	// IndexStat describes an existing index.
	IndexStat = indexer.IndexStat
	// IndexType selects between the inverted bitmap and vector indexers.
	IndexType = indexer.IndexType
	// Constraint is one predicate `Column Op Operand` of a query.
	Constraint = indexer.Constraint
	// Operator is the comparison of a Constraint.
	Operator = indexer.Operator
	// Value is a typed operand or projected column value.
	Value = indexer.Value
)

const (
	IndexTypeInvertedBitmap = indexer.IndexTypeInvertedBitmap
	IndexTypeVector         = indexer.IndexTypeVector
)

const (
	OpEqual            = indexer.OpEqual
	OpLessThan         = indexer.OpLessThan
	OpLessThanEqual    = indexer.OpLessThanEqual
	OpGreaterThan      = indexer.OpGreaterThan
	OpGreaterThanEqual = indexer.OpGreaterThanEqual
	OpMatch            = indexer.OpMatch
)

// Operand constructors.
var (
	Int    = indexer.Int
	Uint   = indexer.Uint
	Double = indexer.Double
	String = indexer.String
	Bytes  = indexer.Bytes
)

// ParseIndexType parses "inverted_bitmap" or "vector".
func ParseIndexType(s string) (IndexType, error) {
	t, err := indexer.ParseIndexType(s)
	return t, translateError(err)
}

// Eq returns the constraint column = v.
func Eq(column string, v Value) Constraint {
	return Constraint{Column: column, Op: OpEqual, Operand: v}
}

// Lt returns the constraint column < v.
func Lt(column string, v Value) Constraint {
	return Constraint{Column: column, Op: OpLessThan, Operand: v}
}

// Lte returns the constraint column <= v.
func Lte(column string, v Value) Constraint {
	return Constraint{Column: column, Op: OpLessThanEqual, Operand: v}
}

// Gt returns the constraint column > v.
func Gt(column string, v Value) Constraint {
	return Constraint{Column: column, Op: OpGreaterThan, Operand: v}
}

// Gte returns the constraint column >= v.
func Gte(column string, v Value) Constraint {
	return Constraint{Column: column, Op: OpGreaterThanEqual, Operand: v}
}

// readValue reads the scalar at path of doc as a Value of the family of ft.
func readValue(doc document.Document, path string, ft document.FieldType) (Value, error) {
	sub, leaf, err := document.Resolve(doc, path)
	if err != nil {
		return Value{}, err
	}
	if err := sub.VerifyFieldForRead(leaf, ft); err != nil {
		return Value{}, err
	}
	switch {
	case ft.IsSigned():
		v, err := sub.GetInt64(leaf)
		return Int(v), err
	case ft.IsUnsigned():
		v, err := sub.GetUint64(leaf)
		return Uint(v), err
	case ft.IsFloating():
		v, err := sub.GetFloat64(leaf)
		return Double(v), err
	case ft == document.String:
		v, err := sub.GetString(leaf)
		return String(v), err
	case ft == document.Blob:
		v, err := sub.GetBytes(leaf)
		return Bytes(v), err
	}
	return Value{}, fmt.Errorf("%w: %q of type %s has no scalar value", ErrInvalidArgument, path, ft)
}
