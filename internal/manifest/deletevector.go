package manifest

import (
	"path/filepath"

	"github.com/zarianw/jonoondb-sub000/internal/fs"
)

const deleteVectorExt = ".dv"

// DeleteVectorRows persists the delete vector row of one collection.
type DeleteVectorRows struct {
	fs   fs.FileSystem
	path string
}

// DeleteVectorRows returns the delete vector row store of collection.
func (s *Store) DeleteVectorRows(collection string) *DeleteVectorRows {
	return &DeleteVectorRows{
		fs:   s.fs,
		path: filepath.Join(s.dir, s.CollectionFileName(collection)+deleteVectorExt),
	}
}

// Path returns the row file path.
func (d *DeleteVectorRows) Path() string { return d.path }

// Load returns the persisted row. ok is false when no row was ever saved.
func (d *DeleteVectorRows) Load() (row DeleteVectorRow, ok bool, err error) {
	exists, err := fs.Exists(d.fs, d.path)
	if err != nil || !exists {
		return DeleteVectorRow{}, false, err
	}
	data, err := fs.ReadFile(d.fs, d.path)
	if err != nil {
		return DeleteVectorRow{}, false, err
	}
	row, err = decodeRow(data)
	if err != nil {
		return DeleteVectorRow{}, false, err
	}
	return row, true, nil
}

// Save replaces the persisted row atomically.
func (d *DeleteVectorRows) Save(row DeleteVectorRow) error {
	return fs.WriteFileAtomic(d.fs, d.path, encodeRow(row), 0o644)
}
