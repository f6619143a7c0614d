package blobstore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec applied to payloads before they are written.
type Compression uint8

const (
	// CompressionNone stores payloads as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses Zstandard (better ratio, slower).
	CompressionZSTD Compression = 2
	// CompressionSnappy uses the Snappy block format via S2.
	CompressionSnappy Compression = 3
)

// String returns the stable name used in configuration and the manifest.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	case "snappy", "s2":
		return CompressionSnappy, nil
	default:
		return CompressionNone, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// Valid reports whether c is a known codec.
func (c Compression) Valid() bool {
	return c <= CompressionSnappy
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress returns the bytes to store and whether they are compressed.
// Payloads that do not shrink are returned unchanged.
func compress(c Compression, data []byte) ([]byte, bool, error) {
	if c == CompressionNone || len(data) == 0 {
		return data, false, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, false, err
		}
		// n == 0 means incompressible.
		out = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	case CompressionSnappy:
		out = s2.EncodeSnappy(nil, data)
	default:
		return nil, false, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	if len(out) == 0 || len(out) >= len(data) {
		return data, false, nil
	}
	return out, true, nil
}

// decompress expands stored bytes into exactly length bytes.
func decompress(c Compression, stored []byte, length int) ([]byte, error) {
	dst := make([]byte, length)
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(stored, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupted, err)
		}
		if n != length {
			return nil, fmt.Errorf("%w: lz4 produced %d of %d bytes", ErrCorrupted, n, length)
		}
		return dst, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(stored, dst[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupted, err)
		}
		if len(out) != length {
			return nil, fmt.Errorf("%w: zstd produced %d of %d bytes", ErrCorrupted, len(out), length)
		}
		return out, nil
	case CompressionSnappy:
		n, err := s2.DecodedLen(stored)
		if err != nil || n != length {
			return nil, fmt.Errorf("%w: snappy length %d, want %d", ErrCorrupted, n, length)
		}
		out, err := s2.Decode(dst, stored)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %w", ErrCorrupted, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}
