package bitmap

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Cursor walks a bitmap in ascending order with random seeks.
// An exhausted cursor compares greater than any valid one.
type Cursor struct {
	it    roaring64.IntPeekable64
	cur   uint64
	valid bool
}

// Cursor returns a cursor positioned at the smallest position.
func (b *Bitmap) Cursor() *Cursor {
	c := &Cursor{it: b.rb.Iterator()}
	c.Next()
	return c
}

// Valid reports whether the cursor points at a position.
func (c *Cursor) Valid() bool { return c.valid }

// Value returns the current position. Only meaningful while Valid.
func (c *Cursor) Value() uint64 { return c.cur }

// Next advances to the following position.
func (c *Cursor) Next() {
	if c.it.HasNext() {
		c.cur = c.it.Next()
		c.valid = true
		return
	}
	c.valid = false
}

// Seek moves forward to the first position >= target.
// It never moves backwards.
func (c *Cursor) Seek(target uint64) {
	if !c.valid || c.cur >= target {
		return
	}
	c.it.AdvanceIfNeeded(target)
	c.Next()
}

// Compare orders two cursors by their current position.
func (c *Cursor) Compare(other *Cursor) int {
	switch {
	case !c.valid && !other.valid:
		return 0
	case !c.valid:
		return 1
	case !other.valid:
		return -1
	case c.cur < other.cur:
		return -1
	case c.cur > other.cur:
		return 1
	}
	return 0
}
