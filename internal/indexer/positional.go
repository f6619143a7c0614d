package indexer

import (
	"cmp"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
)

// positionalIndexer keeps the value of every position in a dense slice.
// Filters are linear scans; values can be read back by position.
type positionalIndexer[K cmp.Ordered] struct {
	column[K]
	values []K
}

func newPositionalIndexer[K cmp.Ordered](stat IndexStat, fam family[K]) *positionalIndexer[K] {
	return &positionalIndexer[K]{column: column[K]{stat: stat, fam: fam}}
}

func (ix *positionalIndexer[K]) Insert(pos uint64, doc document.Document) error {
	if err := ix.checkPosition(pos); err != nil {
		return err
	}
	k, err := ix.readKey(doc)
	if err != nil {
		return err
	}
	ix.values = append(ix.values, k)
	ix.next++
	return nil
}

func (ix *positionalIndexer[K]) Filter(c Constraint) (*bitmap.Bitmap, error) {
	if err := ix.checkColumn(c); err != nil {
		return nil, err
	}
	iv, err := ix.fam.interval(c.Op, c.Operand)
	if err != nil {
		return nil, err
	}
	return ix.scan(iv), nil
}

func (ix *positionalIndexer[K]) FilterRange(lower, upper Constraint) (*bitmap.Bitmap, error) {
	iv, err := ix.rangeInterval(lower, upper)
	if err != nil {
		return nil, err
	}
	return ix.scan(iv), nil
}

func (ix *positionalIndexer[K]) scan(iv interval[K]) *bitmap.Bitmap {
	out := bitmap.New()
	if iv.empty {
		return out
	}
	for pos, k := range ix.values {
		if iv.contains(k) {
			// Positions ascend, Add cannot fail.
			_ = out.Add(uint64(pos))
		}
	}
	return out
}

func (ix *positionalIndexer[K]) TryGetValue(pos uint64) (Value, bool) {
	if pos >= uint64(len(ix.values)) {
		return Value{}, false
	}
	return ix.fam.value(ix.values[pos]), true
}

func (ix *positionalIndexer[K]) TryGetValues(positions []uint64) ([]Value, bool) {
	out := make([]Value, len(positions))
	for i, pos := range positions {
		if pos >= uint64(len(ix.values)) {
			return nil, false
		}
		out[i] = ix.fam.value(ix.values[pos])
	}
	return out, true
}
