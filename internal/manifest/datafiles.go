package manifest

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/zarianw/jonoondb-sub000/blobstore"
)

// DataFiles is the data file table of one collection. It implements
// blobstore.FileNamer on top of the manifest.
type DataFiles struct {
	s          *Store
	collection string
}

var _ blobstore.FileNamer = (*DataFiles)(nil)

// DataFiles returns the data file table of collection.
func (s *Store) DataFiles(collection string) *DataFiles {
	return &DataFiles{s: s, collection: collection}
}

func (d *DataFiles) info(r DataFileRecord) blobstore.FileInfo {
	return blobstore.FileInfo{
		FileKey:          r.Key,
		FileName:         r.Name,
		FileNameWithPath: filepath.Join(d.s.dir, r.Name),
		DataLength:       r.DataLength,
	}
}

func (d *DataFiles) record(key int32) DataFileRecord {
	return DataFileRecord{
		Key:        key,
		Name:       d.s.CollectionFileName(d.collection) + "." + strconv.FormatInt(int64(key), 10),
		DataLength: -1,
	}
}

func (d *DataFiles) lookup(m *Manifest) (*CollectionRecord, error) {
	rec, ok := m.collection(d.collection)
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", ErrNotFound, d.collection)
	}
	return rec, nil
}

// GetCurrentDataFileInfo returns the file with the highest key.
func (d *DataFiles) GetCurrentDataFileInfo(createIfMissing bool) (blobstore.FileInfo, error) {
	d.s.mu.Lock()
	rec, err := d.lookup(d.s.m)
	if err != nil {
		d.s.mu.Unlock()
		return blobstore.FileInfo{}, err
	}
	if n := len(rec.DataFiles); n > 0 {
		info := d.info(rec.DataFiles[n-1])
		d.s.mu.Unlock()
		return info, nil
	}
	d.s.mu.Unlock()

	if !createIfMissing {
		return blobstore.FileInfo{}, fmt.Errorf("%w: no data file for collection %q", ErrNotFound, d.collection)
	}

	var out blobstore.FileInfo
	err = d.s.update(func(m *Manifest) error {
		rec, err := d.lookup(m)
		if err != nil {
			return err
		}
		if n := len(rec.DataFiles); n > 0 {
			out = d.info(rec.DataFiles[n-1])
			return nil
		}
		r := d.record(0)
		rec.DataFiles = append(rec.DataFiles, r)
		out = d.info(r)
		return nil
	})
	return out, err
}

// GetNextDataFileInfo allocates the record following the current file.
func (d *DataFiles) GetNextDataFileInfo() (blobstore.FileInfo, error) {
	var out blobstore.FileInfo
	err := d.s.update(func(m *Manifest) error {
		rec, err := d.lookup(m)
		if err != nil {
			return err
		}
		var key int32
		if n := len(rec.DataFiles); n > 0 {
			key = rec.DataFiles[n-1].Key + 1
		}
		r := d.record(key)
		rec.DataFiles = append(rec.DataFiles, r)
		out = d.info(r)
		return nil
	})
	return out, err
}

// GetFileInfo resolves fileKey.
func (d *DataFiles) GetFileInfo(fileKey int32) (blobstore.FileInfo, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	rec, err := d.lookup(d.s.m)
	if err != nil {
		return blobstore.FileInfo{}, err
	}
	for _, r := range rec.DataFiles {
		if r.Key == fileKey {
			return d.info(r), nil
		}
	}
	return blobstore.FileInfo{}, fmt.Errorf("%w: data file %d of collection %q", ErrNotFound, fileKey, d.collection)
}

// UpdateDataFileLength persists the written length of fileKey.
func (d *DataFiles) UpdateDataFileLength(fileKey int32, length int64) error {
	return d.s.update(func(m *Manifest) error {
		rec, err := d.lookup(m)
		if err != nil {
			return err
		}
		for i := range rec.DataFiles {
			if rec.DataFiles[i].Key == fileKey {
				rec.DataFiles[i].DataLength = length
				return nil
			}
		}
		return fmt.Errorf("%w: data file %d of collection %q", ErrNotFound, fileKey, d.collection)
	})
}
