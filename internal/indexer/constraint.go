package indexer

import (
	"fmt"
	"strconv"
)

// Operator is a comparison operator of a Constraint.
type Operator uint8

const (
	OpEqual Operator = iota
	OpLessThan
	OpLessThanEqual
	OpGreaterThan
	OpGreaterThanEqual
	OpMatch
)

func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpLessThan:
		return "<"
	case OpLessThanEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanEqual:
		return ">="
	case OpMatch:
		return "MATCH"
	}
	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

// IsLower reports whether o bounds a range from below.
func (o Operator) IsLower() bool { return o == OpGreaterThan || o == OpGreaterThanEqual }

// IsUpper reports whether o bounds a range from above.
func (o Operator) IsUpper() bool { return o == OpLessThan || o == OpLessThanEqual }

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindUint
	KindDouble
	KindString
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	}
	return "invalid"
}

// Value is a tagged scalar: a constraint operand or a projected column value.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	s    string
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Uint returns an unsigned integer Value.
func Uint(v uint64) Value { return Value{kind: KindUint, u: v} }

// Double returns a floating point Value.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes returns a byte string Value. b is copied.
func Bytes(b []byte) Value { return Value{kind: KindBytes, s: string(b)} }

// Kind returns the type of v. The zero Value has no kind.
func (v Value) Kind() Kind { return v.kind }

// AsInt64 returns the value of an Int.
func (v Value) AsInt64() (int64, bool) { return v.i, v.kind == KindInt }

// AsUint64 returns the value of a Uint.
func (v Value) AsUint64() (uint64, bool) { return v.u, v.kind == KindUint }

// AsFloat64 returns the value of a Double.
func (v Value) AsFloat64() (float64, bool) { return v.f, v.kind == KindDouble }

// AsString returns the value of a String or Bytes.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString || v.kind == KindBytes
}

// Any returns the value as int64, uint64, float64, string or []byte.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return []byte(v.s)
	}
	return nil
}

func (v Value) GoString() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindBytes:
		return fmt.Sprintf("%x", v.s)
	}
	return "<invalid>"
}

// Constraint is one predicate `Column Op Operand`.
type Constraint struct {
	Column  string
	Op      Operator
	Operand Value
}

func (c Constraint) String() string {
	return c.Column + " " + c.Op.String() + " " + c.Operand.GoString()
}
