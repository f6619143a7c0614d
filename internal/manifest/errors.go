package manifest

import "errors"

var (
	// ErrIncompatibleVersion is returned when the manifest version is not supported.
	ErrIncompatibleVersion = errors.New("manifest: incompatible version")

	// ErrNotFound is returned when a database, collection, data file or row does not exist.
	ErrNotFound = errors.New("manifest: not found")

	// ErrCollectionExists is returned when adding a collection whose name is taken.
	ErrCollectionExists = errors.New("manifest: collection already exists")

	// ErrCorrupted is returned when a persisted file fails its integrity checks.
	ErrCorrupted = errors.New("manifest: corrupted")
)
