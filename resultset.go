package jonoondb

import (
	"context"
	"errors"
	"iter"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
)

// ResultSet is a cursor over the positions matched by Find, in ascending
// order. Documents are read lazily; one deleted after Find returns
// ErrNotFound when read.
//
// A ResultSet is not safe for concurrent use.
type ResultSet struct {
	c       *Collection
	matches *bitmap.Bitmap
	cur     *bitmap.Cursor
	started bool
}

func newResultSet(c *Collection, matches *bitmap.Bitmap) *ResultSet {
	return &ResultSet{c: c, matches: matches, cur: matches.Cursor()}
}

// Len returns the number of matched positions.
func (r *ResultSet) Len() uint64 { return r.matches.Cardinality() }

// Positions returns every matched position.
func (r *ResultSet) Positions() []uint64 { return r.matches.ToSlice() }

// Next advances to the next match and reports whether there is one.
func (r *ResultSet) Next() bool {
	if !r.started {
		r.started = true
		return r.cur.Valid()
	}
	if r.cur.Valid() {
		r.cur.Next()
	}
	return r.cur.Valid()
}

// Seek moves forward to the first match at or after pos and reports whether
// there is one.
func (r *ResultSet) Seek(pos uint64) bool {
	r.started = true
	r.cur.Seek(pos)
	return r.cur.Valid()
}

// Position returns the current position. Only meaningful after Next
// returned true.
func (r *ResultSet) Position() uint64 { return r.cur.Value() }

// Bytes returns the stored bytes of the current document.
func (r *ResultSet) Bytes(ctx context.Context) ([]byte, error) {
	return r.c.Get(ctx, r.cur.Value())
}

// Document returns the current document decoded against the schema.
func (r *ResultSet) Document(ctx context.Context) (*document.Map, error) {
	return r.c.GetDocument(ctx, r.cur.Value())
}

// Reset rewinds the cursor to before the first match.
func (r *ResultSet) Reset() {
	r.cur = r.matches.Cursor()
	r.started = false
}

// Match is one document yielded by All.
type Match struct {
	Position uint64
	Document *document.Map
}

// All yields each remaining match with its decoded document. Documents
// deleted since Find are skipped; any other read error is yielded once and
// ends the iteration.
func (r *ResultSet) All(ctx context.Context) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		for r.Next() {
			doc, err := r.Document(ctx)
			var nf *ErrDocumentNotFound
			if errors.As(err, &nf) && nf.Deleted {
				continue
			}
			if err != nil {
				yield(Match{Position: r.Position()}, err)
				return
			}
			if !yield(Match{Position: r.Position(), Document: doc}, nil) {
				return
			}
		}
	}
}
