package indexer

import (
	"cmp"
	"slices"
	"sync"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
)

// bitmapIndexer maps every distinct value to the bitmap of positions that
// hold it. New keys are appended; an out-of-order append marks keys unsorted
// and the next range lookup sorts them once.
type bitmapIndexer[K cmp.Ordered] struct {
	column[K]
	bitmaps map[K]*bitmap.Bitmap

	// keysMu lets concurrent readers share the deferred sort.
	keysMu   sync.Mutex
	keys     []K
	unsorted bool

	// NaN keys cannot live in the map and never match a comparison.
	nan *bitmap.Bitmap
}

func newBitmapIndexer[K cmp.Ordered](stat IndexStat, fam family[K]) *bitmapIndexer[K] {
	return &bitmapIndexer[K]{
		column:  column[K]{stat: stat, fam: fam},
		bitmaps: make(map[K]*bitmap.Bitmap),
	}
}

func (ix *bitmapIndexer[K]) Insert(pos uint64, doc document.Document) error {
	if err := ix.checkPosition(pos); err != nil {
		return err
	}
	k, err := ix.readKey(doc)
	if err != nil {
		return err
	}

	var b *bitmap.Bitmap
	switch {
	case k != k:
		if ix.nan == nil {
			ix.nan = bitmap.New()
		}
		b = ix.nan
	default:
		var ok bool
		if b, ok = ix.bitmaps[k]; !ok {
			b = bitmap.New()
			ix.bitmaps[k] = b
			ix.appendKey(k)
		}
	}
	if err := b.Add(pos); err != nil {
		return err
	}
	ix.next++
	return nil
}

func (ix *bitmapIndexer[K]) appendKey(k K) {
	ix.keysMu.Lock()
	if n := len(ix.keys); n > 0 && k < ix.keys[n-1] {
		ix.unsorted = true
	}
	ix.keys = append(ix.keys, k)
	ix.keysMu.Unlock()
}

// sortedKeys returns the distinct keys in ascending order. The slice must
// not be retained across inserts.
func (ix *bitmapIndexer[K]) sortedKeys() []K {
	ix.keysMu.Lock()
	defer ix.keysMu.Unlock()
	if ix.unsorted {
		slices.Sort(ix.keys)
		ix.unsorted = false
	}
	return ix.keys
}

func (ix *bitmapIndexer[K]) Filter(c Constraint) (*bitmap.Bitmap, error) {
	if err := ix.checkColumn(c); err != nil {
		return nil, err
	}
	iv, err := ix.fam.interval(c.Op, c.Operand)
	if err != nil {
		return nil, err
	}
	return ix.collect(iv), nil
}

func (ix *bitmapIndexer[K]) FilterRange(lower, upper Constraint) (*bitmap.Bitmap, error) {
	iv, err := ix.rangeInterval(lower, upper)
	if err != nil {
		return nil, err
	}
	return ix.collect(iv), nil
}

// collect unions the bitmaps of every key in iv.
func (ix *bitmapIndexer[K]) collect(iv interval[K]) *bitmap.Bitmap {
	if iv.empty {
		return bitmap.New()
	}
	if iv.point() {
		if b, ok := ix.bitmaps[iv.lo]; ok {
			return b.Clone()
		}
		return bitmap.New()
	}

	keys := ix.sortedKeys()
	start := 0
	if iv.hasLo {
		var found bool
		start, found = slices.BinarySearch(keys, iv.lo)
		if found && iv.loOpen {
			start++
		}
	}

	return bitmap.OrAll(func(yield func(*bitmap.Bitmap) bool) {
		for _, k := range keys[start:] {
			if !iv.belowHi(k) || !yield(ix.bitmaps[k]) {
				return
			}
		}
	})
}
