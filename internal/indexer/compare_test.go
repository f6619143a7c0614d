package indexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchInt returns the keys accepted by `key op v`.
func matchInt(t *testing.T, op Operator, v Value, keys []int64) []int64 {
	t.Helper()
	iv, err := int64Interval(op, v)
	require.NoError(t, err)
	var out []int64
	for _, k := range keys {
		if iv.contains(k) {
			out = append(out, k)
		}
	}
	return out
}

func TestInt64IntervalDoubleOperand(t *testing.T) {
	keys := []int64{math.MinInt64, -3, -2, -1, 0, 1, 2, 3, math.MaxInt64}
	tests := []struct {
		name string
		op   Operator
		f    float64
		want []int64
	}{
		{"lt fraction", OpLessThan, 2.5, []int64{math.MinInt64, -3, -2, -1, 0, 1, 2}},
		{"lt integral", OpLessThan, 2, []int64{math.MinInt64, -3, -2, -1, 0, 1}},
		{"lte fraction", OpLessThanEqual, 2.5, []int64{math.MinInt64, -3, -2, -1, 0, 1, 2}},
		{"lte integral", OpLessThanEqual, 2, []int64{math.MinInt64, -3, -2, -1, 0, 1, 2}},
		{"gt fraction", OpGreaterThan, -2.5, []int64{-2, -1, 0, 1, 2, 3, math.MaxInt64}},
		{"gt integral", OpGreaterThan, -2, []int64{-1, 0, 1, 2, 3, math.MaxInt64}},
		{"gte fraction", OpGreaterThanEqual, -2.5, []int64{-2, -1, 0, 1, 2, 3, math.MaxInt64}},
		{"gte integral", OpGreaterThanEqual, -2, []int64{-2, -1, 0, 1, 2, 3, math.MaxInt64}},
		{"eq integral", OpEqual, 3, []int64{3}},
		{"eq fraction", OpEqual, 3.5, nil},
		{"eq nan", OpEqual, math.NaN(), nil},
		{"lt nan", OpLessThan, math.NaN(), nil},
		{"gt nan", OpGreaterThan, math.NaN(), nil},
		{"lt +inf", OpLessThan, math.Inf(1), keys},
		{"gt +inf", OpGreaterThan, math.Inf(1), nil},
		{"gte -inf", OpGreaterThanEqual, math.Inf(-1), keys},
		{"lte -inf", OpLessThanEqual, math.Inf(-1), nil},
		{"lt 2^63", OpLessThan, twoTo63, keys},
		{"gte 2^63", OpGreaterThanEqual, twoTo63, nil},
		{"lt -2^63", OpLessThan, -twoTo63, nil},
		{"lte -2^63", OpLessThanEqual, -twoTo63, []int64{math.MinInt64}},
		{"eq -2^63", OpEqual, -twoTo63, []int64{math.MinInt64}},
		{"eq 2^63", OpEqual, twoTo63, nil},
		{"gt -0.5", OpGreaterThan, -0.5, []int64{0, 1, 2, 3, math.MaxInt64}},
		{"lt -0.5", OpLessThan, -0.5, []int64{math.MinInt64, -3, -2, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchInt(t, tt.op, Double(tt.f), keys))
		})
	}
}

func TestInt64IntervalUintOperand(t *testing.T) {
	keys := []int64{-1, 0, math.MaxInt64}
	assert.Equal(t, keys, matchInt(t, OpLessThan, Uint(math.MaxUint64), keys))
	assert.Nil(t, matchInt(t, OpGreaterThan, Uint(math.MaxUint64), keys))
	assert.Nil(t, matchInt(t, OpEqual, Uint(math.MaxUint64), keys))
	assert.Equal(t, []int64{math.MaxInt64}, matchInt(t, OpEqual, Uint(math.MaxInt64), keys))
}

func TestUint64Interval(t *testing.T) {
	keys := []uint64{0, 1, 2, 3, math.MaxUint64}
	match := func(op Operator, v Value) []uint64 {
		iv, err := uint64Interval(op, v)
		require.NoError(t, err)
		var out []uint64
		for _, k := range keys {
			if iv.contains(k) {
				out = append(out, k)
			}
		}
		return out
	}

	assert.Equal(t, keys, match(OpGreaterThan, Int(-1)))
	assert.Equal(t, keys, match(OpGreaterThanEqual, Int(-5)))
	assert.Nil(t, match(OpLessThan, Int(-1)))
	assert.Nil(t, match(OpEqual, Int(-1)))
	assert.Equal(t, []uint64{0, 1}, match(OpLessThan, Double(1.5)))
	assert.Equal(t, []uint64{0, 1}, match(OpLessThanEqual, Double(1.5)))
	assert.Equal(t, []uint64{2, 3, math.MaxUint64}, match(OpGreaterThan, Double(1.5)))
	assert.Equal(t, keys, match(OpGreaterThanEqual, Double(-0.5)))
	assert.Nil(t, match(OpLessThan, Double(-0.5)))
	assert.Nil(t, match(OpLessThan, Double(0)))
	assert.Equal(t, keys, match(OpLessThan, Double(twoTo64)))
	assert.Nil(t, match(OpGreaterThanEqual, Double(twoTo64)))
	assert.Equal(t, []uint64{math.MaxUint64}, match(OpEqual, Uint(math.MaxUint64)))
}

func TestFloat64IntervalIntOperand(t *testing.T) {
	// 2^53+1 is not representable; float64 rounds it to 2^53.
	const big = int64(1<<53) + 1
	justBelow := math.Nextafter(float64(1<<53), 0)
	justAbove := math.Nextafter(float64(1<<53), math.Inf(1)) // 2^53 + 2
	keys := []float64{math.Inf(-1), justBelow, float64(1 << 53), justAbove, math.Inf(1), math.NaN()}

	match := func(op Operator, v Value) []float64 {
		iv, err := float64Interval(op, v)
		require.NoError(t, err)
		var out []float64
		for _, k := range keys {
			if iv.contains(k) {
				out = append(out, k)
			}
		}
		return out
	}

	assert.Equal(t, []float64{math.Inf(-1), justBelow, float64(1 << 53)}, match(OpLessThan, Int(big)))
	assert.Equal(t, []float64{math.Inf(-1), justBelow, float64(1 << 53)}, match(OpLessThanEqual, Int(big)))
	assert.Equal(t, []float64{justAbove, math.Inf(1)}, match(OpGreaterThan, Int(big)))
	assert.Equal(t, []float64{justAbove, math.Inf(1)}, match(OpGreaterThanEqual, Int(big)))
	assert.Nil(t, match(OpEqual, Int(big)))

	assert.Equal(t, []float64{float64(1 << 53)}, match(OpEqual, Int(1<<53)))
	assert.Equal(t, []float64{math.Inf(-1), justBelow}, match(OpLessThan, Int(1<<53)))

	// MaxInt64 rounds up to 2^63.
	assert.Equal(t, []float64{math.Inf(1)}, match(OpGreaterThan, Int(math.MaxInt64)))
	assert.Nil(t, match(OpEqual, Double(math.NaN())))
}

func TestStringIntervalRejectsNumbers(t *testing.T) {
	_, err := stringInterval(OpEqual, Int(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = int64Interval(OpEqual, String("1"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = int64Interval(OpMatch, Int(1))
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
}

func TestIntervalIntersect(t *testing.T) {
	a := above[int64](2, true)
	b := below[int64](5, false)
	iv := a.intersect(b)
	for k, want := range map[int64]bool{2: false, 3: true, 5: true, 6: false} {
		assert.Equal(t, want, iv.contains(k), "key %d", k)
	}

	assert.True(t, above[int64](5, true).intersect(below[int64](5, false)).empty)
	assert.True(t, above[int64](5, false).intersect(below[int64](5, false)).point())
	assert.True(t, above[int64](7, false).intersect(below[int64](5, false)).empty)
	assert.True(t, nothing[int64]().intersect(everything[int64]()).empty)

	// Tighter of two lower bounds wins.
	iv = above[int64](1, false).intersect(above[int64](1, true))
	assert.False(t, iv.contains(1))
}
