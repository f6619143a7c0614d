package document

import (
	"fmt"
	"strings"
)

// FieldType is the physical type of a document field.
type FieldType int8

const (
	Int8 FieldType = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float
	Double
	String
	Blob
	Complex
)

var fieldTypeNames = [...]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	UInt8:   "uint8",
	UInt16:  "uint16",
	UInt32:  "uint32",
	UInt64:  "uint64",
	Float:   "float",
	Double:  "double",
	String:  "string",
	Blob:    "blob",
	Complex: "complex",
}

func (t FieldType) String() string {
	if t >= 0 && int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", int8(t))
}

// ParseFieldType parses the name returned by String. "float32", "float64"
// and "bytes" are accepted as aliases.
func ParseFieldType(s string) (FieldType, error) {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "float32":
		return Float, nil
	case "float64":
		return Double, nil
	case "bytes":
		return Blob, nil
	default:
		for i, n := range fieldTypeNames {
			if n == name {
				return FieldType(i), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unknown field type %q", ErrInvalidArgument, s)
}

// IsSigned reports whether t is a signed integer type.
func (t FieldType) IsSigned() bool { return t >= Int8 && t <= Int64 }

// IsUnsigned reports whether t is an unsigned integer type.
func (t FieldType) IsUnsigned() bool { return t >= UInt8 && t <= UInt64 }

// IsInteger reports whether t is a signed or unsigned integer type.
func (t FieldType) IsInteger() bool { return t.IsSigned() || t.IsUnsigned() }

// IsFloating reports whether t is Float or Double.
func (t FieldType) IsFloating() bool { return t == Float || t == Double }

// IsScalar reports whether t can be indexed.
func (t FieldType) IsScalar() bool { return t >= Int8 && t <= Blob }
