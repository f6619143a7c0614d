package bitmap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Type identifies the serialized encoding of a Bitmap.
// It is persisted next to serialized bitmaps so a future encoding can be
// introduced without breaking old data.
type Type uint8

const (
	// TypeUnknown is never written.
	TypeUnknown Type = 0
	// TypeRoaring64 is the portable 64-bit Roaring serialization.
	TypeRoaring64 Type = 1
)

// Version is the current serialization version for TypeRoaring64.
const Version uint8 = 1

var (
	// ErrOrderViolation is returned by Add when a position is not strictly
	// greater than the previously added one.
	ErrOrderViolation = errors.New("bitmap: positions must be added in strictly increasing order")

	// ErrUnsupportedType is returned when deserializing an unknown bitmap type or version.
	ErrUnsupportedType = errors.New("bitmap: unsupported serialization type")
)

// Bitmap is a compressed, sorted, monotonically growing set of positions.
// It is not safe for concurrent mutation.
type Bitmap struct {
	rb      *roaring64.Bitmap
	last    uint64
	hasLast bool
}

// New creates an empty bitmap.
func New() *Bitmap {
	return &Bitmap{rb: roaring64.New()}
}

// Of builds a bitmap from ascending positions.
func Of(positions ...uint64) (*Bitmap, error) {
	b := New()
	for _, p := range positions {
		if err := b.Add(p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func wrap(rb *roaring64.Bitmap) *Bitmap {
	b := &Bitmap{rb: rb}
	if !rb.IsEmpty() {
		b.last = rb.Maximum()
		b.hasLast = true
	}
	return b
}

// Add appends pos. pos must be strictly greater than every position already
// in the bitmap.
func (b *Bitmap) Add(pos uint64) error {
	if b.hasLast && pos <= b.last {
		return fmt.Errorf("%w: add %d after %d", ErrOrderViolation, pos, b.last)
	}
	b.rb.Add(pos)
	b.last = pos
	b.hasLast = true
	return nil
}

// Contains reports whether pos is set.
func (b *Bitmap) Contains(pos uint64) bool {
	return b.rb.Contains(pos)
}

// IsEmpty reports whether no position is set.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of set positions.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// SizeInBits returns the last position plus one, or 0 for an empty bitmap.
// It is the smallest universe that holds every position.
func (b *Bitmap) SizeInBits() uint64 {
	if !b.hasLast {
		return 0
	}
	return b.last + 1
}

// Last returns the largest position and false if the bitmap is empty.
func (b *Bitmap) Last() (uint64, bool) {
	return b.last, b.hasLast
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{rb: b.rb.Clone(), last: b.last, hasLast: b.hasLast}
}

// Reset removes every position.
func (b *Bitmap) Reset() {
	b.rb.Clear()
	b.last = 0
	b.hasLast = false
}

// Equal reports whether both bitmaps hold the same positions.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if b.Cardinality() != other.Cardinality() {
		return false
	}
	it1, it2 := b.rb.Iterator(), other.rb.Iterator()
	for it1.HasNext() {
		if !it2.HasNext() || it1.Next() != it2.Next() {
			return false
		}
	}
	return !it2.HasNext()
}

// ToSlice returns the positions in ascending order.
func (b *Bitmap) ToSlice() []uint64 {
	return b.rb.ToArray()
}

// All yields positions in ascending order.
func (b *Bitmap) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// And returns the intersection of a and b as a new bitmap.
func And(a, b *Bitmap) *Bitmap {
	return wrap(roaring64.And(a.rb, b.rb))
}

// Or returns the union of a and b as a new bitmap.
func Or(a, b *Bitmap) *Bitmap {
	return wrap(roaring64.Or(a.rb, b.rb))
}

// Not returns the complement of b within the universe [0, universe).
// Positions of b at or beyond universe are dropped.
func Not(b *Bitmap, universe uint64) *Bitmap {
	full := roaring64.New()
	if universe > 0 {
		full.AddRange(0, universe)
	}
	full.AndNot(b.rb)
	return wrap(full)
}

// AndAll intersects the bitmaps seq yields, left to right, and takes
// ownership of them. It stops pulling from seq once the running
// intersection is empty, so later bitmaps are never computed. An empty seq
// yields an empty bitmap.
func AndAll(seq iter.Seq2[*Bitmap, error]) (*Bitmap, error) {
	var acc *Bitmap
	for b, err := range seq {
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = b
		} else {
			acc.rb.And(b.rb)
		}
		if acc.rb.IsEmpty() {
			break
		}
	}
	if acc == nil {
		return New(), nil
	}
	return wrap(acc.rb), nil
}

// OrAll unions the bitmaps seq yields into one accumulator. The inputs are
// only read, so a range scan can feed index bitmaps directly and peak memory
// stays at the size of the result.
func OrAll(seq iter.Seq[*Bitmap]) *Bitmap {
	acc := roaring64.New()
	for b := range seq {
		acc.Or(b.rb)
	}
	return wrap(acc)
}

// WriteTo serializes the bitmap.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	return b.rb.WriteTo(w)
}

// ReadFrom replaces the bitmap contents with a serialized bitmap.
func (b *Bitmap) ReadFrom(r io.Reader) (int64, error) {
	rb := roaring64.New()
	n, err := rb.ReadFrom(r)
	if err != nil {
		return n, err
	}
	*b = *wrap(rb)
	return n, nil
}

// MarshalBinary serializes the bitmap.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data written with the given type and version.
// Empty data yields an empty bitmap.
func Decode(typ Type, version uint8, data []byte) (*Bitmap, error) {
	if typ != TypeRoaring64 || version != Version {
		return nil, fmt.Errorf("%w: type %d version %d", ErrUnsupportedType, typ, version)
	}
	b := New()
	if len(data) == 0 {
		return b, nil
	}
	if _, err := b.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return b, nil
}
