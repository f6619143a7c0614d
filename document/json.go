package document

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/zarianw/jonoondb-sub000/codec"
)

// number is satisfied by json.Number from either JSON package.
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

// FromJSON decodes a JSON object and conforms it to schema.
func FromJSON(schema *Schema, data []byte) (*Map, error) {
	var raw map[string]any
	if err := codec.Default.UnmarshalNumbers(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is not a JSON object", ErrInvalidArgument)
	}
	return conform(schema, "", raw)
}

// New conforms values to schema. Numbers may be any Go numeric type as long
// as they fit the declared field type exactly; blobs may be given as
// base64 strings.
func New(schema *Schema, values map[string]any) (*Map, error) {
	return conform(schema, "", values)
}

// MarshalJSON encodes the document. Blobs are base64 strings.
func (m *Map) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(m.fields)
}

// conform checks raw against the schema fields under prefix. Fields absent
// from raw or null get their type's zero value.
func conform(schema *Schema, prefix string, raw map[string]any) (*Map, error) {
	m := &Map{fields: make(map[string]any, len(raw))}
	for key, val := range raw {
		path := prefix + key
		t, ok := schema.FieldType(path)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not in the schema", ErrInvalidArgument, path)
		}
		if val == nil {
			continue
		}
		v, err := convert(schema, path, t, val)
		if err != nil {
			return nil, err
		}
		m.fields[key] = v
	}
	for _, key := range schema.children(prefix) {
		if _, ok := m.fields[key]; ok {
			continue
		}
		path := prefix + key
		t, _ := schema.FieldType(path)
		if t == Complex {
			sub, err := conform(schema, path+".", nil)
			if err != nil {
				return nil, err
			}
			m.fields[key] = sub
			continue
		}
		m.fields[key] = zero(t)
	}
	return m, nil
}

func zero(t FieldType) any {
	switch t {
	case Int8:
		return int8(0)
	case Int16:
		return int16(0)
	case Int32:
		return int32(0)
	case Int64:
		return int64(0)
	case UInt8:
		return uint8(0)
	case UInt16:
		return uint16(0)
	case UInt32:
		return uint32(0)
	case UInt64:
		return uint64(0)
	case Float:
		return float32(0)
	case Double:
		return float64(0)
	case String:
		return ""
	case Blob:
		return []byte{}
	}
	return nil
}

func convert(schema *Schema, path string, t FieldType, val any) (any, error) {
	bad := func() error {
		return fmt.Errorf("%w: field %q: %v (%T) is not a valid %v", ErrInvalidArgument, path, val, val, t)
	}

	switch {
	case t == Complex:
		switch x := val.(type) {
		case map[string]any:
			return conform(schema, path+".", x)
		case *Map:
			return conform(schema, path+".", x.fields)
		}
		return nil, bad()

	case t.IsSigned():
		i, ok := toInt64(val)
		if !ok {
			return nil, bad()
		}
		switch t {
		case Int8:
			if i < math.MinInt8 || i > math.MaxInt8 {
				return nil, bad()
			}
			return int8(i), nil
		case Int16:
			if i < math.MinInt16 || i > math.MaxInt16 {
				return nil, bad()
			}
			return int16(i), nil
		case Int32:
			if i < math.MinInt32 || i > math.MaxInt32 {
				return nil, bad()
			}
			return int32(i), nil
		}
		return i, nil

	case t.IsUnsigned():
		u, ok := toUint64(val)
		if !ok {
			return nil, bad()
		}
		switch t {
		case UInt8:
			if u > math.MaxUint8 {
				return nil, bad()
			}
			return uint8(u), nil
		case UInt16:
			if u > math.MaxUint16 {
				return nil, bad()
			}
			return uint16(u), nil
		case UInt32:
			if u > math.MaxUint32 {
				return nil, bad()
			}
			return uint32(u), nil
		}
		return u, nil

	case t.IsFloating():
		f, ok := toFloat64(val)
		if !ok {
			return nil, bad()
		}
		if t == Float {
			return float32(f), nil
		}
		return f, nil

	case t == String:
		if s, ok := val.(string); ok {
			return s, nil
		}
		return nil, bad()

	case t == Blob:
		switch x := val.(type) {
		case []byte:
			return x, nil
		case string:
			b, err := base64.StdEncoding.DecodeString(x)
			if err != nil {
				return nil, bad()
			}
			return b, nil
		}
		return nil, bad()
	}
	return nil, bad()
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint64:
		return int64(x), x <= math.MaxInt64
	case float64:
		return floatToInt64(x)
	case float32:
		return floatToInt64(float64(x))
	case number:
		i, err := strconv.ParseInt(x.String(), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case float64:
		if x < 0 || x >= 1<<64 || x != math.Trunc(x) {
			return 0, false
		}
		return uint64(x), true
	case float32:
		return toUint64(float64(x))
	case number:
		u, err := strconv.ParseUint(x.String(), 10, 64)
		return u, err == nil
	}
	if i, ok := toInt64(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case number:
		f, err := x.Float64()
		return f, err == nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	if u, ok := toUint64(v); ok {
		return float64(u), true
	}
	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
