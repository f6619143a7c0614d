package indexer

import (
	"cmp"
	"fmt"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
)

// Indexer indexes one column of a collection. Implementations are the
// bitmap and positional variants in this package.
//
// Insert is not synchronized; callers serialize it with every other call.
type Indexer interface {
	// Stat returns the index description.
	Stat() IndexStat
	// ValidateForInsert fails if Insert would fail for doc.
	ValidateForInsert(doc document.Document) error
	// Insert indexes doc at pos, which must be the next position.
	Insert(pos uint64, doc document.Document) error
	// Filter returns the positions matching c as a new bitmap.
	Filter(c Constraint) (*bitmap.Bitmap, error)
	// FilterRange returns the positions matching both a lower (> or >=) and
	// an upper (< or <=) constraint on the column in one pass.
	FilterRange(lower, upper Constraint) (*bitmap.Bitmap, error)

	sealed()
}

// ValueReader is implemented by indexers that keep every value by position.
type ValueReader interface {
	// TryGetValue returns the value at pos.
	TryGetValue(pos uint64) (Value, bool)
	// TryGetValues returns the values at positions in order. It fails as a
	// whole if any position is out of range.
	TryGetValues(positions []uint64) ([]Value, bool)
}

// family binds a key type to the document accessor and the comparison rules
// of a group of field types.
type family[K cmp.Ordered] struct {
	read     func(doc document.Document, field string) (K, error)
	interval func(op Operator, v Value) (interval[K], error)
	value    func(k K) Value
}

var (
	signedFamily = family[int64]{
		read:     document.Document.GetInt64,
		interval: int64Interval,
		value:    Int,
	}
	unsignedFamily = family[uint64]{
		read:     document.Document.GetUint64,
		interval: uint64Interval,
		value:    Uint,
	}
	floatFamily = family[float64]{
		read:     document.Document.GetFloat64,
		interval: float64Interval,
		value:    Double,
	}
	stringFamily = family[string]{
		read:     document.Document.GetString,
		interval: stringInterval,
		value:    String,
	}
	blobFamily = family[string]{
		read: func(doc document.Document, field string) (string, error) {
			b, err := doc.GetBytes(field)
			return string(b), err
		},
		interval: stringInterval,
		value:    func(k string) Value { return Value{kind: KindBytes, s: k} },
	}
)

// column holds what both indexer variants share: the description, the
// family and position bookkeeping.
type column[K cmp.Ordered] struct {
	stat IndexStat
	fam  family[K]
	next uint64
}

func (c *column[K]) Stat() IndexStat { return c.stat }

func (c *column[K]) sealed() {}

func (c *column[K]) readKey(doc document.Document) (K, error) {
	var zero K
	sub, leaf, err := document.Resolve(doc, c.stat.Column)
	if err != nil {
		return zero, fmt.Errorf("%w: index %q: %w", ErrInvalidArgument, c.stat.Name, err)
	}
	if err := sub.VerifyFieldForRead(leaf, c.stat.FieldType); err != nil {
		return zero, fmt.Errorf("%w: index %q: %w", ErrInvalidArgument, c.stat.Name, err)
	}
	k, err := c.fam.read(sub, leaf)
	if err != nil {
		return zero, fmt.Errorf("%w: index %q: %w", ErrInvalidArgument, c.stat.Name, err)
	}
	return k, nil
}

func (c *column[K]) ValidateForInsert(doc document.Document) error {
	_, err := c.readKey(doc)
	return err
}

func (c *column[K]) checkPosition(pos uint64) error {
	if pos != c.next {
		return fmt.Errorf("%w: index %q expected position %d, got %d", ErrOrderViolation, c.stat.Name, c.next, pos)
	}
	return nil
}

func (c *column[K]) checkColumn(cs ...Constraint) error {
	for _, x := range cs {
		if x.Column != c.stat.Column {
			return fmt.Errorf("%w: constraint on %q sent to index %q on %q", ErrInvalidArgument, x.Column, c.stat.Name, c.stat.Column)
		}
	}
	return nil
}

// rangeInterval intersects the intervals of a lower and an upper constraint.
func (c *column[K]) rangeInterval(lower, upper Constraint) (interval[K], error) {
	if err := c.checkColumn(lower, upper); err != nil {
		return interval[K]{}, err
	}
	if !lower.Op.IsLower() || !upper.Op.IsUpper() {
		return interval[K]{}, fmt.Errorf("%w: range needs a lower and an upper bound, got %v and %v", ErrInvalidArgument, lower.Op, upper.Op)
	}
	lo, err := c.fam.interval(lower.Op, lower.Operand)
	if err != nil {
		return interval[K]{}, err
	}
	hi, err := c.fam.interval(upper.Op, upper.Operand)
	if err != nil {
		return interval[K]{}, err
	}
	return lo.intersect(hi), nil
}
