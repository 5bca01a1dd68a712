package fileloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrIncomplete is returned when a compressed upload could only be partly
// decompressed. Truncated rows must not replace the open file.
var ErrIncomplete = errors.New("file is incomplete")

// Load reads a translation file from disk
func Load(path string, opts Options) (*Result, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(filepath.Base(path), data, info.ModTime(), opts)
}

// LoadBytes decodes file content that was already read, e.g. dropped onto the window.
// The name decides the format; compression is also detected from magic bytes.
func LoadBytes(name string, data []byte, modTime time.Time, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}

	fileType, compression := DetectFileTypeAndCompression(name)
	if compression == CompressionNone {
		compression = DetectCompressionByMagic(data)
	}

	result := &Result{
		Name:         name,
		Size:         int64(len(data)),
		LastModified: modTime,
		FileType:     fileType,
		Compression:  compression,
	}

	if compression != CompressionNone {
		decompressed, err := Decompress(data, compression)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
		}
		if decompressed.Warning != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrIncomplete, name, decompressed.Warning)
		}
		data = decompressed.Data
	}

	var err error
	switch fileType {
	case FileTypeXLSX:
		result.Records, err = ParseXLSX(data)
	case FileTypeJSON:
		result.Records, err = ParseJSON(data, opts.JSONPath)
	default:
		result.Records, err = ParseCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return result, nil
}
