package manifest

import (
	"maps"
	"slices"
	"time"
)

// CurrentVersion is the version of the manifest payload.
const CurrentVersion = 1

// Manifest describes the collections of one database.
type Manifest struct {
	Version     int                `json:"version"`
	Database    string             `json:"database"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Collections []CollectionRecord `json:"collections"`
}

// CollectionRecord is everything needed to reopen a collection.
type CollectionRecord struct {
	Name string `json:"name"`
	// Schema maps dot-separated field paths to field type names.
	Schema map[string]string `json:"schema"`
	// Compression names the payload codec; fixed at creation.
	Compression string           `json:"compression"`
	Indexes     []IndexRecord    `json:"indexes"`
	DataFiles   []DataFileRecord `json:"data_files"`
	CreatedAt   time.Time        `json:"created_at"`
}

// IndexRecord describes one index of a collection.
type IndexRecord struct {
	Name      string `json:"name"`
	Column    string `json:"column"`
	Type      uint8  `json:"type"`
	Ascending bool   `json:"ascending"`
}

// DataFileRecord is one row of the data file table.
// DataLength is -1 until the file is rotated away from or closed.
type DataFileRecord struct {
	Key        int32  `json:"key"`
	Name       string `json:"name"`
	DataLength int64  `json:"data_length"`
}

// New creates an empty manifest for database.
func New(database string) *Manifest {
	return &Manifest{
		Version:  CurrentVersion,
		Database: database,
	}
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Collections = make([]CollectionRecord, len(m.Collections))
	for i := range m.Collections {
		c.Collections[i] = m.Collections[i].Clone()
	}
	return &c
}

// Clone returns a deep copy.
func (r CollectionRecord) Clone() CollectionRecord {
	r.Schema = maps.Clone(r.Schema)
	r.Indexes = slices.Clone(r.Indexes)
	r.DataFiles = slices.Clone(r.DataFiles)
	return r
}

func (m *Manifest) collection(name string) (*CollectionRecord, bool) {
	for i := range m.Collections {
		if m.Collections[i].Name == name {
			return &m.Collections[i], true
		}
	}
	return nil, false
}
