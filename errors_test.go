package jonoondb

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
	"github.com/zarianw/jonoondb-sub000/internal/deletevec"
	"github.com/zarianw/jonoondb-sub000/internal/fs"
	"github.com/zarianw/jonoondb-sub000/internal/indexer"
	"github.com/zarianw/jonoondb-sub000/internal/manifest"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"bitmap order", bitmap.ErrOrderViolation, ErrOrderViolation},
		{"indexer order", fmt.Errorf("ix_age: %w", indexer.ErrOrderViolation), ErrOrderViolation},
		{"storage full", blobstore.ErrStorageFull, ErrStorageFull},
		{"blob closed", blobstore.ErrClosed, ErrClosed},
		{"blob corrupted", blobstore.ErrCorrupted, ErrCorrupted},
		{"manifest version", manifest.ErrIncompatibleVersion, ErrCorrupted},
		{"delete vector corrupted", deletevec.ErrCorrupted, ErrCorrupted},
		{"blob io", blobstore.ErrFileIO, ErrFileIO},
		{"no index", indexer.ErrNoIndex, ErrNoIndex},
		{"collection exists", manifest.ErrCollectionExists, ErrCollectionExists},
		{"manifest not found", manifest.ErrNotFound, ErrNotFound},
		{"already deleted", deletevec.ErrAlreadyDeleted, ErrNotFound},
		{"unsupported operator", indexer.ErrUnsupportedOperator, ErrInvalidArgument},
		{"type mismatch", document.ErrTypeMismatch, ErrInvalidArgument},
		{"unknown compression", blobstore.ErrUnknownCompression, ErrInvalidArgument},
		{"injected", fs.ErrInjected, ErrFileIO},
		{"path error", &iofs.PathError{Op: "open", Path: "x", Err: iofs.ErrPermission}, ErrFileIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.in, "cause must stay reachable")
		})
	}
}

func TestTranslateErrorPassThrough(t *testing.T) {
	assert.NoError(t, translateError(nil))

	wrapped := fmt.Errorf("%w: already", ErrNotFound)
	assert.Same(t, wrapped, translateError(wrapped))

	other := errors.New("something else")
	assert.Same(t, other, translateError(other))
}

func TestStorageFullIsFileIO(t *testing.T) {
	err := translateError(blobstore.ErrStorageFull)
	assert.ErrorIs(t, err, ErrStorageFull)
	assert.ErrorIs(t, err, ErrFileIO)
}

func TestErrDocumentNotFound(t *testing.T) {
	err := error(&ErrDocumentNotFound{Collection: "users", Position: 7, Deleted: true, cause: deletevec.ErrAlreadyDeleted})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, deletevec.ErrAlreadyDeleted)
	assert.Contains(t, err.Error(), "deleted")

	err = &ErrDocumentNotFound{Collection: "users", Position: 9}
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no document at position 9")
}
