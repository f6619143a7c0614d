package indexer

import (
	"cmp"
	"fmt"
	"math"
)

// interval is the set of keys a constraint accepts. A missing bound is
// unbounded on that side. NaN keys are never contained.
type interval[K cmp.Ordered] struct {
	lo, hi         K
	hasLo, hasHi   bool
	loOpen, hiOpen bool
	empty          bool
}

func everything[K cmp.Ordered]() interval[K] { return interval[K]{} }

func nothing[K cmp.Ordered]() interval[K] { return interval[K]{empty: true} }

func exactly[K cmp.Ordered](k K) interval[K] {
	return interval[K]{lo: k, hi: k, hasLo: true, hasHi: true}
}

func below[K cmp.Ordered](k K, open bool) interval[K] {
	return interval[K]{hi: k, hasHi: true, hiOpen: open}
}

func above[K cmp.Ordered](k K, open bool) interval[K] {
	return interval[K]{lo: k, hasLo: true, loOpen: open}
}

// point reports whether the interval holds exactly one key.
func (iv interval[K]) point() bool {
	return !iv.empty && iv.hasLo && iv.hasHi && !iv.loOpen && !iv.hiOpen && iv.lo == iv.hi
}

func (iv interval[K]) aboveLo(k K) bool {
	if !iv.hasLo {
		return true
	}
	c := cmp.Compare(k, iv.lo)
	return c > 0 || (c == 0 && !iv.loOpen)
}

func (iv interval[K]) belowHi(k K) bool {
	if !iv.hasHi {
		return true
	}
	c := cmp.Compare(k, iv.hi)
	return c < 0 || (c == 0 && !iv.hiOpen)
}

func (iv interval[K]) contains(k K) bool {
	return !iv.empty && k == k && iv.aboveLo(k) && iv.belowHi(k)
}

// intersect returns the keys accepted by both intervals.
func (iv interval[K]) intersect(o interval[K]) interval[K] {
	if iv.empty || o.empty {
		return nothing[K]()
	}
	out := iv
	if o.hasLo {
		switch c := cmp.Compare(o.lo, out.lo); {
		case !out.hasLo || c > 0:
			out.lo, out.hasLo, out.loOpen = o.lo, true, o.loOpen
		case c == 0:
			out.loOpen = out.loOpen || o.loOpen
		}
	}
	if o.hasHi {
		switch c := cmp.Compare(o.hi, out.hi); {
		case !out.hasHi || c < 0:
			out.hi, out.hasHi, out.hiOpen = o.hi, true, o.hiOpen
		case c == 0:
			out.hiOpen = out.hiOpen || o.hiOpen
		}
	}
	if out.hasLo && out.hasHi {
		c := cmp.Compare(out.lo, out.hi)
		if c > 0 || (c == 0 && (out.loOpen || out.hiOpen)) {
			return nothing[K]()
		}
	}
	return out
}

// fromOp builds the interval of `key op k` for a key type that k belongs to.
func fromOp[K cmp.Ordered](op Operator, k K) (interval[K], error) {
	switch op {
	case OpEqual:
		return exactly(k), nil
	case OpLessThan:
		return below(k, true), nil
	case OpLessThanEqual:
		return below(k, false), nil
	case OpGreaterThan:
		return above(k, true), nil
	case OpGreaterThanEqual:
		return above(k, false), nil
	}
	return interval[K]{}, fmt.Errorf("%w: %v", ErrUnsupportedOperator, op)
}

// 2^63 and 2^64 as float64; both are exact.
const (
	twoTo63 = float64(1 << 63)
	twoTo64 = float64(1<<63) * 2
)

// int64Interval converts a constraint to an interval over signed integer keys.
// A fractional double bound is rounded toward the inside of the accepted set:
// key < 2.5 becomes key < 3, key <= 2.5 becomes key <= 2, key > 2.5 becomes
// key > 2 and key >= 2.5 becomes key >= 3. A double only equals an integer
// key when it has no fractional part.
func int64Interval(op Operator, v Value) (interval[int64], error) {
	switch v.kind {
	case KindInt:
		return fromOp(op, v.i)
	case KindUint:
		if v.u <= math.MaxInt64 {
			return fromOp(op, int64(v.u))
		}
		// Beyond every int64 key.
		if _, err := fromOp(op, 0); err != nil {
			return nothing[int64](), err
		}
		if op.IsUpper() {
			return everything[int64](), nil
		}
		return nothing[int64](), nil
	case KindDouble:
		return int64FromDouble(op, v.f)
	}
	return nothing[int64](), fmt.Errorf("%w: %v operand for an integer column", ErrInvalidArgument, v.kind)
}

func int64FromDouble(op Operator, f float64) (interval[int64], error) {
	if _, err := fromOp(op, 0); err != nil {
		return nothing[int64](), err
	}
	if math.IsNaN(f) {
		return nothing[int64](), nil
	}
	// r is the rounded bound; the key range is [-2^63, 2^63).
	var r float64
	switch op {
	case OpEqual:
		if f != math.Trunc(f) || f < -twoTo63 || f >= twoTo63 {
			return nothing[int64](), nil
		}
		return exactly(int64(f)), nil
	case OpLessThan:
		r = math.Ceil(f)
		if r >= twoTo63 {
			return everything[int64](), nil
		}
		if r <= -twoTo63 {
			return nothing[int64](), nil
		}
		return below(int64(r), true), nil
	case OpLessThanEqual:
		r = math.Floor(f)
		if r >= twoTo63 {
			return everything[int64](), nil
		}
		if r < -twoTo63 {
			return nothing[int64](), nil
		}
		return below(int64(r), false), nil
	case OpGreaterThan:
		r = math.Floor(f)
		if r < -twoTo63 {
			return everything[int64](), nil
		}
		if r >= twoTo63 {
			return nothing[int64](), nil
		}
		return above(int64(r), true), nil
	default: // OpGreaterThanEqual
		r = math.Ceil(f)
		if r <= -twoTo63 {
			return everything[int64](), nil
		}
		if r >= twoTo63 {
			return nothing[int64](), nil
		}
		return above(int64(r), false), nil
	}
}

// uint64Interval converts a constraint to an interval over unsigned keys.
// Rounding of double bounds follows int64Interval.
func uint64Interval(op Operator, v Value) (interval[uint64], error) {
	if _, err := fromOp(op, 0); err != nil {
		return nothing[uint64](), err
	}
	switch v.kind {
	case KindUint:
		return fromOp(op, v.u)
	case KindInt:
		if v.i >= 0 {
			return fromOp(op, uint64(v.i))
		}
		// Below every unsigned key.
		if op.IsLower() {
			return everything[uint64](), nil
		}
		return nothing[uint64](), nil
	case KindDouble:
		return uint64FromDouble(op, v.f), nil
	}
	return nothing[uint64](), fmt.Errorf("%w: %v operand for an unsigned column", ErrInvalidArgument, v.kind)
}

func uint64FromDouble(op Operator, f float64) interval[uint64] {
	if math.IsNaN(f) {
		return nothing[uint64]()
	}
	var r float64
	switch op {
	case OpEqual:
		if f != math.Trunc(f) || f < 0 || f >= twoTo64 {
			return nothing[uint64]()
		}
		return exactly(uint64(f))
	case OpLessThan:
		r = math.Ceil(f)
		if r >= twoTo64 {
			return everything[uint64]()
		}
		if r <= 0 {
			return nothing[uint64]()
		}
		return below(uint64(r), true)
	case OpLessThanEqual:
		r = math.Floor(f)
		if r >= twoTo64 {
			return everything[uint64]()
		}
		if r < 0 {
			return nothing[uint64]()
		}
		return below(uint64(r), false)
	case OpGreaterThan:
		r = math.Floor(f)
		if r < 0 {
			return everything[uint64]()
		}
		if r >= twoTo64 {
			return nothing[uint64]()
		}
		return above(uint64(r), true)
	default: // OpGreaterThanEqual
		r = math.Ceil(f)
		if r <= 0 {
			return everything[uint64]()
		}
		if r >= twoTo64 {
			return nothing[uint64]()
		}
		return above(uint64(r), false)
	}
}

// float64Interval converts a constraint to an interval over floating keys.
// An integer operand that float64 cannot represent exactly is replaced by
// its nearest float g; since no float lies strictly between the integer and
// g, the bound is tightened or loosened by inclusiveness alone.
func float64Interval(op Operator, v Value) (interval[float64], error) {
	if _, err := fromOp(op, 0.0); err != nil {
		return nothing[float64](), err
	}
	switch v.kind {
	case KindDouble:
		if math.IsNaN(v.f) {
			return nothing[float64](), nil
		}
		return fromOp(op, v.f)
	case KindInt:
		g := float64(v.i)
		var dir int // sign of g - v.i
		if g >= twoTo63 {
			dir = 1
		} else {
			dir = cmp.Compare(int64(g), v.i)
		}
		return floatFromRounded(op, g, dir), nil
	case KindUint:
		g := float64(v.u)
		var dir int
		if g >= twoTo64 {
			dir = 1
		} else {
			dir = cmp.Compare(uint64(g), v.u)
		}
		return floatFromRounded(op, g, dir), nil
	}
	return nothing[float64](), fmt.Errorf("%w: %v operand for a floating column", ErrInvalidArgument, v.kind)
}

// floatFromRounded builds `key op x` given g = float64(x) and dir = sign(g-x).
func floatFromRounded(op Operator, g float64, dir int) interval[float64] {
	if dir == 0 {
		iv, _ := fromOp(op, g)
		return iv
	}
	switch op {
	case OpEqual:
		return nothing[float64]()
	case OpLessThan, OpLessThanEqual:
		// g > x: key < x <=> key < g. g < x: key < x <=> key <= g.
		return below(g, dir > 0)
	default:
		// g > x: key > x <=> key >= g. g < x: key > x <=> key > g.
		return above(g, dir < 0)
	}
}

// stringInterval converts a constraint to an interval over string or byte
// keys, compared bytewise.
func stringInterval(op Operator, v Value) (interval[string], error) {
	s, ok := v.AsString()
	if !ok {
		return nothing[string](), fmt.Errorf("%w: %v operand for a string column", ErrInvalidArgument, v.kind)
	}
	return fromOp(op, s)
}
