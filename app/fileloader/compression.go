package fileloader

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// CompressionType represents the compression format of a file
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

// String returns the string representation of CompressionType
func (ct CompressionType) String() string {
	switch ct {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

// Magic byte signatures for compression detection
var (
	// Gzip magic bytes: 1f 8b
	gzipMagic = []byte{0x1f, 0x8b}
	// Bzip2 magic bytes: 42 5a 68 ("BZh")
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	// XZ magic bytes: fd 37 7a 58 5a 00
	xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// DecompressionResult contains the decompressed data and any warning
type DecompressionResult struct {
	Data    []byte
	Warning string // Non-empty if decompression was incomplete
}

// DetectCompressionByMagic inspects the leading bytes of data
func DetectCompressionByMagic(data []byte) CompressionType {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, bzip2Magic):
		return CompressionBzip2
	case bytes.HasPrefix(data, xzMagic):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// Decompress returns the decompressed data.
// If decompression fails mid-stream, it returns partial data with a warning message.
func Decompress(data []byte, compressionType CompressionType) (*DecompressionResult, error) {
	if compressionType == CompressionNone {
		return &DecompressionResult{Data: data}, nil
	}

	var reader io.Reader
	switch compressionType {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader

	case CompressionBzip2:
		reader = bzip2.NewReader(bytes.NewReader(data))

	case CompressionXZ:
		xzReader, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		reader = xzReader

	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressionType)
	}

	// Read all data, capturing any mid-stream errors
	var buf bytes.Buffer
	_, decompressErr := io.Copy(&buf, reader)

	result := &DecompressionResult{Data: buf.Bytes()}

	// Partial data is still usable, surface it with a warning
	if decompressErr != nil {
		if len(result.Data) == 0 {
			return nil, fmt.Errorf("decompression failed: %w", decompressErr)
		}
		result.Warning = fmt.Sprintf("Decompression incomplete: %v. Some data may be missing.", decompressErr)
	}

	return result, nil
}
