package indexer

import (
	"cmp"
	"fmt"

	"github.com/zarianw/jonoondb-sub000/document"
)

// New creates the indexer described by info for a column of type ft.
func New(info IndexInfo, ft document.FieldType) (Indexer, error) {
	switch {
	case info.Name == "":
		return nil, fmt.Errorf("%w: index has an empty name", ErrInvalidArgument)
	case info.Column == "":
		return nil, fmt.Errorf("%w: index %q has an empty column name", ErrInvalidArgument, info.Name)
	case info.Type != IndexTypeInvertedBitmap && info.Type != IndexTypeVector:
		return nil, fmt.Errorf("%w: index %q has type %v", ErrInvalidArgument, info.Name, info.Type)
	case !ft.IsScalar():
		return nil, fmt.Errorf("%w: index %q cannot index a %v column", ErrInvalidArgument, info.Name, ft)
	}

	stat := IndexStat{IndexInfo: info, FieldType: ft}
	bitmapIx := info.Type == IndexTypeInvertedBitmap
	switch {
	case ft.IsSigned():
		return build(stat, signedFamily, bitmapIx), nil
	case ft.IsUnsigned():
		return build(stat, unsignedFamily, bitmapIx), nil
	case ft.IsFloating():
		return build(stat, floatFamily, bitmapIx), nil
	case ft == document.String:
		return build(stat, stringFamily, bitmapIx), nil
	default:
		return build(stat, blobFamily, bitmapIx), nil
	}
}

func build[K cmp.Ordered](stat IndexStat, fam family[K], bitmapIx bool) Indexer {
	if bitmapIx {
		return newBitmapIndexer(stat, fam)
	}
	return newPositionalIndexer(stat, fam)
}
