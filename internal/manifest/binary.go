package manifest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zarianw/jonoondb-sub000/codec"
	"lukechampine.com/blake3"
)

const (
	binaryMagic   = 0x4A4E4442 // "JNDB"
	binaryVersion = 1

	rowMagic      = 0x4A4E4456 // "JNDV"
	rowHeaderSize = 4 + 1 + 1 + 2 + 4 + 32
)

// WriteBinary writes the manifest framed with its header.
func (m *Manifest) WriteBinary(w io.Writer, c codec.Codec) error {
	payload, err := c.Marshal(m)
	if err != nil {
		return err
	}
	name := c.Name()
	if len(name) > 255 {
		return fmt.Errorf("codec name too long: %q", name)
	}

	sum := blake3.Sum256(payload)
	header := make([]byte, 0, 4+4+1+len(name)+4+len(sum))
	header = binary.LittleEndian.AppendUint32(header, binaryMagic)
	header = binary.LittleEndian.AppendUint32(header, binaryVersion)
	header = append(header, byte(len(name)))
	header = append(header, name...)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(payload)))
	header = append(header, sum[:]...)

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadBinary reads a manifest written by WriteBinary.
func ReadBinary(data []byte) (*Manifest, error) {
	r := bytes.NewReader(data)

	var fixed [9]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrCorrupted)
	}
	if magic := binary.LittleEndian.Uint32(fixed[0:4]); magic != binaryMagic {
		return nil, fmt.Errorf("%w: invalid magic %x", ErrCorrupted, magic)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != binaryVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrIncompatibleVersion, version)
	}

	name := make([]byte, fixed[8])
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrCorrupted)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrIncompatibleVersion, name)
	}

	var tail [4 + 32]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrCorrupted)
	}
	length := binary.LittleEndian.Uint32(tail[0:4])
	if int64(length) != int64(r.Len()) {
		return nil, fmt.Errorf("%w: payload length %d, have %d", ErrCorrupted, length, r.Len())
	}
	payload := data[len(data)-r.Len():]
	if blake3.Sum256(payload) != [32]byte(tail[4:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupted)
	}

	m := &Manifest{}
	if err := c.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: manifest version %d", ErrIncompatibleVersion, m.Version)
	}
	return m, nil
}

// DeleteVectorRow is the persisted delete vector of a collection.
type DeleteVectorRow struct {
	Type    uint8
	Version uint8
	Data    []byte
}

func encodeRow(row DeleteVectorRow) []byte {
	sum := blake3.Sum256(row.Data)
	b := make([]byte, 0, rowHeaderSize+len(row.Data))
	b = binary.LittleEndian.AppendUint32(b, rowMagic)
	b = append(b, row.Type, row.Version, 0, 0)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(row.Data)))
	b = append(b, sum[:]...)
	return append(b, row.Data...)
}

func decodeRow(b []byte) (DeleteVectorRow, error) {
	if len(b) < rowHeaderSize {
		return DeleteVectorRow{}, fmt.Errorf("%w: delete vector row of %d bytes", ErrCorrupted, len(b))
	}
	if magic := binary.LittleEndian.Uint32(b[0:4]); magic != rowMagic {
		return DeleteVectorRow{}, fmt.Errorf("%w: delete vector magic %x", ErrCorrupted, magic)
	}
	length := binary.LittleEndian.Uint32(b[8:12])
	data := b[rowHeaderSize:]
	if int64(length) != int64(len(data)) {
		return DeleteVectorRow{}, fmt.Errorf("%w: delete vector length %d, have %d", ErrCorrupted, length, len(data))
	}
	if blake3.Sum256(data) != [32]byte(b[12:rowHeaderSize]) {
		return DeleteVectorRow{}, fmt.Errorf("%w: delete vector checksum mismatch", ErrCorrupted)
	}
	return DeleteVectorRow{Type: b[4], Version: b[5], Data: data}, nil
}
