package indexer

import (
	"fmt"
	"strings"

	"github.com/zarianw/jonoondb-sub000/document"
)

// IndexType selects the indexer family.
type IndexType uint8

const (
	// IndexTypeInvertedBitmap maps each distinct value to a bitmap of positions.
	IndexTypeInvertedBitmap IndexType = 1
	// IndexTypeVector keeps a dense array of values indexed by position.
	IndexTypeVector IndexType = 2
)

func (t IndexType) String() string {
	switch t {
	case IndexTypeInvertedBitmap:
		return "inverted_bitmap"
	case IndexTypeVector:
		return "vector"
	}
	return fmt.Sprintf("IndexType(%d)", uint8(t))
}

// ParseIndexType parses the name returned by String.
func ParseIndexType(s string) (IndexType, error) {
	switch strings.ToLower(s) {
	case "inverted_bitmap", "bitmap":
		return IndexTypeInvertedBitmap, nil
	case "vector", "positional":
		return IndexTypeVector, nil
	}
	return 0, fmt.Errorf("%w: unknown index type %q", ErrInvalidArgument, s)
}

// IndexInfo describes an index to create.
type IndexInfo struct {
	Name      string
	Column    string
	Type      IndexType
	Ascending bool
}

// IndexStat is the static description of a constructed indexer.
type IndexStat struct {
	IndexInfo
	FieldType document.FieldType
}
