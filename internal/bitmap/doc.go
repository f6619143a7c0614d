// Package bitmap provides the compressed position bitmap used by every index
// and by the delete vector.
//
// A Bitmap is an ordered set of 64-bit document positions backed by a 64-bit
// Roaring bitmap. Positions must be added in strictly increasing order; Add
// reports ErrOrderViolation otherwise. The ordering contract mirrors how
// positions are assigned (0, 1, 2, ... with no gaps) and lets the bitmap track
// its last position without scanning.
//
// # Set algebra
//
//	a := bitmap.New()
//	_ = a.Add(1)
//	_ = a.Add(5)
//
//	both := bitmap.And(a, b)            // new bitmap
//	hits, err := bitmap.AndAll(terms)   // lazy fold, stops at the first empty result
//	any := bitmap.OrAll(scan)           // fold into one accumulator
//	live := bitmap.Not(deleted, n)      // complement within [0, n)
//
// Not needs the universe size from the caller because a compressed bitmap does
// not know how many positions exist beyond its last set bit.
//
// # Iteration
//
// Ascending iteration is available as an iter.Seq and as a Cursor that can Seek and be compared with another cursor, so range scans can
// loop with `for c.Valid()` or compare against an end cursor.
package bitmap
