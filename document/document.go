package document

import (
	"fmt"
	"strings"
)

// Document is read-only typed access to the fields of one record.
// Field paths are dot-separated; nested segments are resolved through
// sub-documents and the last segment is read as a scalar.
type Document interface {
	// GetInt64 reads a signed integer field.
	GetInt64(path string) (int64, error)
	// GetUint64 reads an unsigned integer field.
	GetUint64(path string) (uint64, error)
	// GetFloat64 reads a Float or Double field.
	GetFloat64(path string) (float64, error)
	// GetString reads a String field.
	GetString(path string) (string, error)
	// GetBytes reads a Blob field. The result must not be modified.
	GetBytes(path string) ([]byte, error)
	// VerifyFieldForRead fails unless path exists with type t.
	VerifyFieldForRead(path string, t FieldType) error
	// GetSubDocument returns the Complex field at path.
	GetSubDocument(path string) (Document, error)
}

// Map is a Document backed by normalized Go values. Values are int8..int64,
// uint8..uint64, float32, float64, string, []byte and *Map.
type Map struct {
	fields map[string]any
}

var _ Document = (*Map)(nil)

// Fields returns the raw field map. It must not be modified.
func (m *Map) Fields() map[string]any { return m.fields }

// lookup resolves path through nested maps.
func (m *Map) lookup(path string) (any, error) {
	cur := m
	for {
		head, rest, nested := strings.Cut(path, ".")
		v, ok := cur.fields[head]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, head)
		}
		if !nested {
			return v, nil
		}
		sub, ok := v.(*Map)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a document", ErrTypeMismatch, head)
		}
		cur, path = sub, rest
	}
}

// TypeOf returns the field type of a normalized value.
func TypeOf(v any) (FieldType, bool) {
	switch v.(type) {
	case int8:
		return Int8, true
	case int16:
		return Int16, true
	case int32:
		return Int32, true
	case int64:
		return Int64, true
	case uint8:
		return UInt8, true
	case uint16:
		return UInt16, true
	case uint32:
		return UInt32, true
	case uint64:
		return UInt64, true
	case float32:
		return Float, true
	case float64:
		return Double, true
	case string:
		return String, true
	case []byte:
		return Blob, true
	case *Map:
		return Complex, true
	}
	return 0, false
}

func mismatch(path string, v any, want string) error {
	got, _ := TypeOf(v)
	return fmt.Errorf("%w: field %q is %v, read as %s", ErrTypeMismatch, path, got, want)
}

func (m *Map) GetInt64(path string) (int64, error) {
	v, err := m.lookup(path)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	}
	return 0, mismatch(path, v, "int64")
}

func (m *Map) GetUint64(path string) (uint64, error) {
	v, err := m.lookup(path)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	}
	return 0, mismatch(path, v, "uint64")
}

func (m *Map) GetFloat64(path string) (float64, error) {
	v, err := m.lookup(path)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	}
	return 0, mismatch(path, v, "double")
}

func (m *Map) GetString(path string) (string, error) {
	v, err := m.lookup(path)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", mismatch(path, v, "string")
}

func (m *Map) GetBytes(path string) ([]byte, error) {
	v, err := m.lookup(path)
	if err != nil {
		return nil, err
	}
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, mismatch(path, v, "blob")
}

func (m *Map) VerifyFieldForRead(path string, t FieldType) error {
	v, err := m.lookup(path)
	if err != nil {
		return err
	}
	if got, _ := TypeOf(v); got != t {
		return mismatch(path, v, t.String())
	}
	return nil
}

func (m *Map) GetSubDocument(path string) (Document, error) {
	v, err := m.lookup(path)
	if err != nil {
		return nil, err
	}
	if sub, ok := v.(*Map); ok {
		return sub, nil
	}
	return nil, mismatch(path, v, "complex")
}

// Resolve walks the sub-documents of a multi-segment path and returns the
// document holding the last segment together with that segment.
func Resolve(doc Document, path string) (Document, string, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return doc, path, nil
	}
	sub, err := doc.GetSubDocument(path[:i])
	if err != nil {
		return nil, "", err
	}
	return sub, path[i+1:], nil
}
