package deletevec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
	"github.com/zarianw/jonoondb-sub000/internal/fs"
	"github.com/zarianw/jonoondb-sub000/internal/manifest"
)

type memRows struct {
	row   manifest.DeleteVectorRow
	ok    bool
	saves int
	fail  error
}

func (m *memRows) Load() (manifest.DeleteVectorRow, bool, error) { return m.row, m.ok, nil }

func (m *memRows) Save(row manifest.DeleteVectorRow) error {
	if m.fail != nil {
		return m.fail
	}
	m.row, m.ok = row, true
	m.saves++
	return nil
}

func seq(n uint64) []uint64 {
	out := make([]uint64, n)
	for i := range n {
		out[i] = i
	}
	return out
}

func TestVisibleBeforeAnyDeletion(t *testing.T) {
	rows := &memRows{}
	d, err := Open(rows, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rows.saves, "an empty row is persisted for a new collection")
	assert.True(t, d.GetDeleteVectorBitmap().IsEmpty())

	require.NoError(t, d.OnDocumentsInserted(7))
	assert.Equal(t, seq(7), d.GetDeleteVectorBitmap().ToSlice())
}

func TestDeleteThenInsert(t *testing.T) {
	d, err := Open(&memRows{}, 10, nil)
	require.NoError(t, err)

	require.NoError(t, d.OnDocumentDeleted(5))
	require.NoError(t, d.OnDocumentsInserted(11))

	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 6, 7, 8, 9, 10}, d.GetDeleteVectorBitmap().ToSlice())
	assert.True(t, d.IsDeleted(5))
	assert.Equal(t, uint64(1), d.DeletedCount())
	assert.Equal(t, uint64(11), d.Next())
}

func TestDeleteOutOfOrderRebuilds(t *testing.T) {
	rows := &memRows{}
	d, err := Open(rows, 10, nil)
	require.NoError(t, err)

	for _, p := range []uint64{7, 2, 9, 0} {
		require.NoError(t, d.OnDocumentDeleted(p))
	}
	assert.Equal(t, []uint64{1, 3, 4, 5, 6, 8}, d.GetDeleteVectorBitmap().ToSlice())

	reopened, err := Open(rows, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, d.GetDeleteVectorBitmap().ToSlice(), reopened.GetDeleteVectorBitmap().ToSlice())
}

func TestDeletePreconditions(t *testing.T) {
	d, err := Open(&memRows{}, 3, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, d.OnDocumentDeleted(3), ErrInvalidArgument)
	require.NoError(t, d.OnDocumentDeleted(1))
	assert.ErrorIs(t, d.OnDocumentDeleted(1), ErrAlreadyDeleted)
	assert.ErrorIs(t, d.OnDocumentsInserted(3), ErrInvalidArgument)
	assert.ErrorIs(t, d.OnDocumentsInserted(2), ErrInvalidArgument)
}

func TestFailedSaveChangesNothing(t *testing.T) {
	rows := &memRows{}
	d, err := Open(rows, 5, nil)
	require.NoError(t, err)
	require.NoError(t, d.OnDocumentDeleted(3))
	before := d.GetDeleteVectorBitmap().ToSlice()

	boom := errors.New("disk full")
	rows.fail = boom
	assert.ErrorIs(t, d.OnDocumentDeleted(1), boom)
	assert.ErrorIs(t, d.OnDocumentDeleted(4), boom)

	assert.False(t, d.IsDeleted(1))
	assert.False(t, d.IsDeleted(4))
	assert.Equal(t, before, d.GetDeleteVectorBitmap().ToSlice())

	rows.fail = nil
	require.NoError(t, d.OnDocumentDeleted(1))
	assert.Equal(t, []uint64{0, 2, 4}, d.GetDeleteVectorBitmap().ToSlice())
}

func TestOpenRejectsBadRows(t *testing.T) {
	_, err := Open(&memRows{ok: true, row: manifest.DeleteVectorRow{Type: 9, Version: 1}}, 0, nil)
	assert.ErrorIs(t, err, ErrCorrupted)

	_, err = Open(&memRows{ok: true, row: manifest.DeleteVectorRow{Type: 1, Version: 1, Data: []byte{1, 2, 3}}}, 0, nil)
	assert.ErrorIs(t, err, ErrCorrupted)

	rows := &memRows{}
	d, err := Open(rows, 10, nil)
	require.NoError(t, err)
	require.NoError(t, d.OnDocumentDeleted(8))
	_, err = Open(rows, 5, nil)
	assert.ErrorIs(t, err, ErrCorrupted)
}

func TestPersistsThroughManifest(t *testing.T) {
	faulty := fs.NewInjector(nil)
	store, err := manifest.Open(t.TempDir(), "db", manifest.Options{FileSystem: faulty, CreateIfMissing: true})
	require.NoError(t, err)
	rows := store.DeleteVectorRows("users")

	d, err := Open(rows, 20, nil)
	require.NoError(t, err)
	for _, p := range []uint64{3, 15, 4} {
		require.NoError(t, d.OnDocumentDeleted(p))
	}

	faulty.Inject(".dv", fs.Fault{On: fs.OpRename})
	require.ErrorIs(t, d.OnDocumentDeleted(0), fs.ErrInjected)
	faulty.Reset()

	reopened, err := Open(store.DeleteVectorRows("users"), 20, nil)
	require.NoError(t, err)
	assert.Equal(t, d.GetDeleteVectorBitmap().ToSlice(), reopened.GetDeleteVectorBitmap().ToSlice())
	assert.False(t, reopened.IsDeleted(0))
	assert.True(t, reopened.IsDeleted(15))
}

type unencodable struct{ err error }

func (unencodable) IsEmpty() bool                    { return false }
func (u unencodable) MarshalBinary() ([]byte, error) { return nil, u.err }

func TestEncodeReportsMarshalErrors(t *testing.T) {
	boom := errors.New("marshal failed")
	_, err := encode(unencodable{err: boom})
	assert.ErrorIs(t, err, boom)

	row, err := encode(bitmap.New())
	require.NoError(t, err)
	assert.Empty(t, row.Data)
	assert.Equal(t, uint8(bitmap.TypeRoaring64), row.Type)
}
