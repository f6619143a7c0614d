package jonoondb

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"

	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
	"github.com/zarianw/jonoondb-sub000/internal/deletevec"
	"github.com/zarianw/jonoondb-sub000/internal/fs"
	"github.com/zarianw/jonoondb-sub000/internal/indexer"
	"github.com/zarianw/jonoondb-sub000/internal/manifest"
)

var (
	// ErrInvalidArgument is returned for malformed names, schemas, index
	// descriptors, documents and constraints.
	ErrInvalidArgument = errors.New("jonoondb: invalid argument")

	// ErrOrderViolation indicates a position was added out of order. It is a
	// programming error, never a data problem.
	ErrOrderViolation = errors.New("jonoondb: order violation")

	// ErrFileIO is returned when a data file or a metadata file cannot be
	// created, mapped, written or flushed.
	ErrFileIO = errors.New("jonoondb: file i/o error")

	// ErrStorageFull is returned when a document can never fit into a data
	// file. It matches ErrFileIO as well.
	ErrStorageFull = fmt.Errorf("%w: storage full", ErrFileIO)

	// ErrNoIndex is returned when a constraint names a column without an index.
	ErrNoIndex = errors.New("jonoondb: no index on column")

	// ErrNotFound is returned for unknown databases, collections and document
	// positions, including deleted documents.
	ErrNotFound = errors.New("jonoondb: not found")

	// ErrCollectionExists is returned when creating a collection twice.
	ErrCollectionExists = errors.New("jonoondb: collection already exists")

	// ErrClosed is returned when using a closed database or collection.
	ErrClosed = errors.New("jonoondb: closed")

	// ErrCorrupted is returned when persisted state fails to decode.
	ErrCorrupted = errors.New("jonoondb: corrupted")
)

// ErrDocumentNotFound reports a position that was never assigned or whose
// document has been deleted.
type ErrDocumentNotFound struct {
	Collection string
	Position   uint64
	Deleted    bool
	cause      error
}

func (e *ErrDocumentNotFound) Error() string {
	if e.Deleted {
		return fmt.Sprintf("jonoondb: document %d of %q is deleted", e.Position, e.Collection)
	}
	return fmt.Sprintf("jonoondb: no document at position %d of %q", e.Position, e.Collection)
}

func (e *ErrDocumentNotFound) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, e.cause}
}

// translateError maps errors of the storage and index layers onto the
// sentinels of this package. The original error stays reachable through
// errors.Is and errors.As.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrOrderViolation),
		errors.Is(err, ErrFileIO), errors.Is(err, ErrNoIndex),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrCollectionExists),
		errors.Is(err, ErrClosed), errors.Is(err, ErrCorrupted):
		// Already translated.
		return err
	}

	var kind error
	switch {
	case errors.Is(err, bitmap.ErrOrderViolation), errors.Is(err, indexer.ErrOrderViolation):
		kind = ErrOrderViolation
	case errors.Is(err, blobstore.ErrStorageFull):
		kind = ErrStorageFull
	case errors.Is(err, blobstore.ErrClosed):
		kind = ErrClosed
	case errors.Is(err, blobstore.ErrCorrupted), errors.Is(err, manifest.ErrCorrupted),
		errors.Is(err, manifest.ErrIncompatibleVersion), errors.Is(err, deletevec.ErrCorrupted),
		errors.Is(err, bitmap.ErrUnsupportedType):
		kind = ErrCorrupted
	case errors.Is(err, blobstore.ErrFileIO):
		kind = ErrFileIO
	case errors.Is(err, indexer.ErrNoIndex):
		kind = ErrNoIndex
	case errors.Is(err, manifest.ErrCollectionExists):
		kind = ErrCollectionExists
	case errors.Is(err, manifest.ErrNotFound), errors.Is(err, deletevec.ErrAlreadyDeleted):
		kind = ErrNotFound
	case errors.Is(err, indexer.ErrInvalidArgument), errors.Is(err, indexer.ErrUnsupportedOperator),
		errors.Is(err, document.ErrInvalidArgument), errors.Is(err, document.ErrFieldNotFound),
		errors.Is(err, document.ErrTypeMismatch), errors.Is(err, deletevec.ErrInvalidArgument),
		errors.Is(err, blobstore.ErrUnknownCompression):
		kind = ErrInvalidArgument
	case errors.Is(err, fs.ErrInjected):
		kind = ErrFileIO
	default:
		var pe *iofs.PathError
		var le *os.LinkError
		if errors.As(err, &pe) || errors.As(err, &le) {
			kind = ErrFileIO
		}
	}

	if kind == nil {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
