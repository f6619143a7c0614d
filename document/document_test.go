package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(map[string]FieldType{
		"name":         String,
		"age":          Int32,
		"id":           UInt64,
		"score":        Double,
		"ratio":        Float,
		"avatar":       Blob,
		"address.city": String,
		"address.zip":  Int16,
	})
	require.NoError(t, err)
	return s
}

func TestFieldTypeNames(t *testing.T) {
	for ft := Int8; ft <= Complex; ft++ {
		got, err := ParseFieldType(ft.String())
		require.NoError(t, err)
		assert.Equal(t, ft, got)
	}

	got, err := ParseFieldType("Float64")
	require.NoError(t, err)
	assert.Equal(t, Double, got)

	_, err = ParseFieldType("decimal")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewSchema(t *testing.T) {
	s := testSchema(t)
	ft, ok := s.FieldType("address")
	require.True(t, ok)
	assert.Equal(t, Complex, ft)
	assert.Contains(t, s.Paths(), "address.zip")

	_, err := NewSchema(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSchema(map[string]FieldType{"a": Int8, "a.b": Int8})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSchema(map[string]FieldType{"a..b": Int8})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	parsed, err := ParseSchema(s.Names())
	require.NoError(t, err)
	assert.Equal(t, s.Paths(), parsed.Paths())
}

func TestFromJSON(t *testing.T) {
	s := testSchema(t)
	doc, err := FromJSON(s, []byte(`{
		"name": "ada",
		"age": 36,
		"id": 18446744073709551615,
		"score": 9.5,
		"avatar": "AQID",
		"address": {"city": "london"}
	}`))
	require.NoError(t, err)

	name, err := doc.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "ada", name)

	age, err := doc.GetInt64("age")
	require.NoError(t, err)
	assert.Equal(t, int64(36), age)

	id, err := doc.GetUint64("id")
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), id)

	score, err := doc.GetFloat64("score")
	require.NoError(t, err)
	assert.Equal(t, 9.5, score)

	avatar, err := doc.GetBytes("avatar")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, avatar)

	city, err := doc.GetString("address.city")
	require.NoError(t, err)
	assert.Equal(t, "london", city)

	// Absent fields read as zero values.
	zip, err := doc.GetInt64("address.zip")
	require.NoError(t, err)
	assert.Zero(t, zip)
	ratio, err := doc.GetFloat64("ratio")
	require.NoError(t, err)
	assert.Zero(t, ratio)

	require.NoError(t, doc.VerifyFieldForRead("age", Int32))
	assert.ErrorIs(t, doc.VerifyFieldForRead("age", Int64), ErrTypeMismatch)
	assert.ErrorIs(t, doc.VerifyFieldForRead("nope", Int64), ErrFieldNotFound)
}

func TestFromJSONRejects(t *testing.T) {
	s := testSchema(t)
	tests := []struct {
		name string
		json string
	}{
		{"not an object", `[1,2]`},
		{"null", `null`},
		{"unknown field", `{"nickname":"x"}`},
		{"int overflow", `{"age": 2147483648}`},
		{"fraction in int", `{"age": 1.5}`},
		{"negative unsigned", `{"id": -1}`},
		{"string for int", `{"age": "36"}`},
		{"bad base64", `{"avatar": "!!"}`},
		{"scalar for complex", `{"address": 3}`},
		{"nested unknown", `{"address": {"street": "x"}}`},
		{"malformed", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON(s, []byte(tt.json))
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestAccessorsRejectWrongFamily(t *testing.T) {
	doc, err := New(testSchema(t), map[string]any{"name": "ada", "age": 3, "id": uint64(7)})
	require.NoError(t, err)

	_, err = doc.GetInt64("name")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = doc.GetUint64("age")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = doc.GetInt64("id")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = doc.GetFloat64("age")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = doc.GetString("name.first")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = doc.GetSubDocument("name")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestResolve(t *testing.T) {
	doc, err := New(testSchema(t), map[string]any{
		"address": map[string]any{"city": "paris", "zip": 75},
	})
	require.NoError(t, err)

	sub, leaf, err := Resolve(doc, "address.zip")
	require.NoError(t, err)
	assert.Equal(t, "zip", leaf)
	zip, err := sub.GetInt64(leaf)
	require.NoError(t, err)
	assert.Equal(t, int64(75), zip)

	same, leaf, err := Resolve(doc, "name")
	require.NoError(t, err)
	assert.Equal(t, "name", leaf)
	assert.Same(t, doc, same)
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	s := testSchema(t)
	doc, err := New(s, map[string]any{"name": "ada", "avatar": []byte{9, 8}, "score": 1.25})
	require.NoError(t, err)

	data, err := doc.MarshalJSON()
	require.NoError(t, err)

	back, err := FromJSON(s, data)
	require.NoError(t, err)
	avatar, err := back.GetBytes("avatar")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8}, avatar)
	score, err := back.GetFloat64("score")
	require.NoError(t, err)
	assert.Equal(t, 1.25, score)
}
