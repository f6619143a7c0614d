package bitmap

import (
	"bytes"
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOf(t *testing.T, positions ...uint64) *Bitmap {
	t.Helper()
	b, err := Of(positions...)
	require.NoError(t, err)
	return b
}

func TestAdd_StrictlyIncreasing(t *testing.T) {
	b := New()
	require.NoError(t, b.Add(0))
	require.NoError(t, b.Add(7))

	err := b.Add(7)
	assert.ErrorIs(t, err, ErrOrderViolation)
	err = b.Add(3)
	assert.ErrorIs(t, err, ErrOrderViolation)

	assert.Equal(t, []uint64{0, 7}, b.ToSlice())
	assert.Equal(t, uint64(8), b.SizeInBits())
	assert.Equal(t, uint64(2), b.Cardinality())
}

func TestEmpty(t *testing.T) {
	b := New()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, uint64(0), b.SizeInBits())
	_, ok := b.Last()
	assert.False(t, ok)
	assert.Empty(t, slices.Collect(b.All()))
}

func TestAlgebra(t *testing.T) {
	a := mustOf(t, 1, 3, 5, 7)
	b := mustOf(t, 3, 4, 5, 6)

	assert.Equal(t, []uint64{3, 5}, And(a, b).ToSlice())
	assert.Equal(t, []uint64{1, 3, 4, 5, 6, 7}, Or(a, b).ToSlice())

	// Inputs untouched.
	assert.Equal(t, []uint64{1, 3, 5, 7}, a.ToSlice())
	assert.Equal(t, []uint64{3, 4, 5, 6}, b.ToSlice())
}

func TestNot(t *testing.T) {
	b := mustOf(t, 1, 3, 4)
	assert.Equal(t, []uint64{0, 2, 5}, Not(b, 6).ToSlice())

	// Positions outside the universe are dropped.
	assert.Equal(t, []uint64{0, 2}, Not(b, 3).ToSlice())
	assert.True(t, Not(b, 0).IsEmpty())
}

func TestResultsAcceptAppends(t *testing.T) {
	r := And(mustOf(t, 1, 2, 3), mustOf(t, 2, 3))
	require.NoError(t, r.Add(10))
	assert.ErrorIs(t, r.Add(3), ErrOrderViolation)

	n := Not(mustOf(t, 0), 4)
	require.NoError(t, n.Add(4))
	assert.Equal(t, []uint64{1, 2, 3, 4}, n.ToSlice())
}

func terms(bs ...*Bitmap) iter.Seq2[*Bitmap, error] {
	return func(yield func(*Bitmap, error) bool) {
		for _, b := range bs {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func TestAndAll(t *testing.T) {
	got, err := AndAll(terms(
		mustOf(t, 1, 2, 3, 4),
		mustOf(t, 2, 3, 4),
		mustOf(t, 3, 4, 9),
	))
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, got.ToSlice())

	got, err = AndAll(terms())
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestAndAllStopsWhenEmpty(t *testing.T) {
	boom := errors.New("not evaluated")
	pulled := 0
	seq := func(yield func(*Bitmap, error) bool) {
		for _, b := range []*Bitmap{mustOf(t, 1), mustOf(t, 2)} {
			pulled++
			if !yield(b, nil) {
				return
			}
		}
		pulled++
		yield(nil, boom)
	}

	got, err := AndAll(seq)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, 2, pulled)

	_, err = AndAll(func(yield func(*Bitmap, error) bool) {
		if yield(mustOf(t, 1), nil) {
			yield(nil, boom)
		}
	})
	assert.ErrorIs(t, err, boom)
}

func TestOrAll(t *testing.T) {
	src := mustOf(t, 5)
	got := OrAll(slices.Values([]*Bitmap{src}))
	require.NoError(t, got.Add(6))
	assert.Equal(t, []uint64{5}, src.ToSlice(), "inputs are not modified")

	got = OrAll(slices.Values([]*Bitmap{mustOf(t, 4, 8), mustOf(t, 1), mustOf(t, 9)}))
	assert.Equal(t, []uint64{1, 4, 8, 9}, got.ToSlice())
	assert.True(t, OrAll(slices.Values[[]*Bitmap](nil)).IsEmpty())
}

func TestIteration(t *testing.T) {
	b := mustOf(t, 2, 4, 1<<40)
	assert.Equal(t, []uint64{2, 4, 1 << 40}, slices.Collect(b.All()))

	var first []uint64
	for p := range b.All() {
		first = append(first, p)
		break
	}
	assert.Equal(t, []uint64{2}, first)
}

func TestCursor(t *testing.T) {
	b := mustOf(t, 1, 5, 9, 20)
	c := b.Cursor()
	require.True(t, c.Valid())
	assert.Equal(t, uint64(1), c.Value())

	c.Seek(6)
	require.True(t, c.Valid())
	assert.Equal(t, uint64(9), c.Value())

	// Seeking backwards is a no-op.
	c.Seek(2)
	assert.Equal(t, uint64(9), c.Value())

	c.Next()
	assert.Equal(t, uint64(20), c.Value())
	c.Next()
	assert.False(t, c.Valid())

	other := b.Cursor()
	assert.Equal(t, 1, c.Compare(other))
	assert.Equal(t, -1, other.Compare(c))
	assert.Equal(t, 0, other.Compare(b.Cursor()))
	assert.Equal(t, 0, c.Compare(New().Cursor()))
}

func TestCloneAndEqual(t *testing.T) {
	a := mustOf(t, 1, 2, 3)
	c := a.Clone()
	assert.True(t, a.Equal(c))

	require.NoError(t, c.Add(4))
	assert.False(t, a.Equal(c))
	assert.Equal(t, uint64(3), a.Cardinality())

	a.Reset()
	assert.True(t, a.IsEmpty())
	require.NoError(t, a.Add(0))
}

func TestSerialization(t *testing.T) {
	a := mustOf(t, 0, 3, 1000, 1<<33)

	data, err := a.MarshalBinary()
	require.NoError(t, err)

	got, err := Decode(TypeRoaring64, Version, data)
	require.NoError(t, err)
	assert.True(t, a.Equal(got))

	// Order tracking survives the round trip.
	assert.ErrorIs(t, got.Add(5), ErrOrderViolation)
	require.NoError(t, got.Add(1<<33+1))

	empty, err := Decode(TypeRoaring64, Version, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = Decode(TypeUnknown, Version, data)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = Decode(TypeRoaring64, 2, data)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	var buf bytes.Buffer
	_, err = a.WriteTo(&buf)
	require.NoError(t, err)
	b := New()
	_, err = b.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, a.ToSlice(), b.ToSlice())
}
