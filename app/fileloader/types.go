// Package fileloader reads translation files into records and writes them
// back out as CSV. CSV, XLSX and JSON are supported, each optionally
// compressed with gzip, bzip2 or xz.
package fileloader

import "time"

// FileType represents the type of data file being processed
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeCSV
	FileTypeXLSX
	FileTypeJSON
)

// String returns the string representation of FileType
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "CSV"
	case FileTypeXLSX:
		return "XLSX"
	case FileTypeJSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// Options controls parsing
type Options struct {
	// JSONPath selects the array of rows inside a JSON document. Empty means "$".
	JSONPath string `json:"jsonPath,omitempty"`
}

// Result is a decoded file ready to be turned into rows
type Result struct {
	Records      [][]string      `json:"records"`
	Name         string          `json:"name"`
	Size         int64           `json:"size"`
	LastModified time.Time       `json:"lastModified"`
	FileType     FileType        `json:"fileType"`
	Compression  CompressionType `json:"compression"`
}
