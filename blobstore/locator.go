package blobstore

import (
	"encoding/binary"
	"fmt"
)

// LocatorSize is the encoded size of a Locator.
const LocatorSize = 20

// Locator addresses one blob inside a collection's data files.
// CompressedLength is 0 when the blob is stored uncompressed.
type Locator struct {
	FileKey          int32
	Offset           uint64
	Length           uint32
	CompressedLength uint32
}

// StoredLength returns the number of bytes the blob occupies on disk.
func (l Locator) StoredLength() uint32 {
	if l.CompressedLength > 0 {
		return l.CompressedLength
	}
	return l.Length
}

// End returns the offset just past the stored bytes.
func (l Locator) End() uint64 {
	return l.Offset + uint64(l.StoredLength())
}

// AppendBinary appends the little-endian encoding of l to b.
func (l Locator) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, uint32(l.FileKey))
	b = binary.LittleEndian.AppendUint64(b, l.Offset)
	b = binary.LittleEndian.AppendUint32(b, l.Length)
	b = binary.LittleEndian.AppendUint32(b, l.CompressedLength)
	return b, nil
}

// MarshalBinary encodes l into LocatorSize bytes.
func (l Locator) MarshalBinary() ([]byte, error) {
	return l.AppendBinary(make([]byte, 0, LocatorSize))
}

// UnmarshalBinary decodes a Locator written by MarshalBinary.
func (l *Locator) UnmarshalBinary(data []byte) error {
	if len(data) != LocatorSize {
		return fmt.Errorf("%w: locator of %d bytes", ErrCorrupted, len(data))
	}
	l.FileKey = int32(binary.LittleEndian.Uint32(data[0:4]))
	l.Offset = binary.LittleEndian.Uint64(data[4:12])
	l.Length = binary.LittleEndian.Uint32(data[12:16])
	l.CompressedLength = binary.LittleEndian.Uint32(data[16:20])
	return nil
}

func (l Locator) String() string {
	return fmt.Sprintf("blob{file=%d off=%d len=%d clen=%d}", l.FileKey, l.Offset, l.Length, l.CompressedLength)
}
