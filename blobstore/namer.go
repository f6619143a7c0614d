package blobstore

// FileInfo describes one data file of a collection.
// DataLength is -1 for a file that has never been closed or rotated away from.
type FileInfo struct {
	FileKey          int32
	FileName         string
	FileNameWithPath string
	DataLength       int64
}

// FileNamer hands out data file names and remembers how much of each file
// holds data. It is implemented by the database manifest.
type FileNamer interface {
	// GetCurrentDataFileInfo returns the file with the highest key, creating
	// the first record (key 0) when none exists and createIfMissing is set.
	GetCurrentDataFileInfo(createIfMissing bool) (FileInfo, error)
	// GetNextDataFileInfo allocates the record for the next file key.
	GetNextDataFileInfo() (FileInfo, error)
	// GetFileInfo resolves a file key.
	GetFileInfo(fileKey int32) (FileInfo, error)
	// UpdateDataFileLength persists the written length of a file.
	UpdateDataFileLength(fileKey int32, length int64) error
}
