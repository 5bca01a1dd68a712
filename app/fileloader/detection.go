package fileloader

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// AcceptedPatterns are the file names the editor can open, matched
// case-insensitively against the base name
var AcceptedPatterns = []string{
	"*.csv",
	"*.xlsx",
	"*.json",
	"*.{csv,xlsx,json}.{gz,bz2,xz}",
}

// compressionExtensions maps compression extensions to their CompressionType
var compressionExtensions = map[string]CompressionType{
	".gz":  CompressionGzip,
	".bz2": CompressionBzip2,
	".xz":  CompressionXZ,
}

// IsAccepted reports whether a file name matches one of AcceptedPatterns
func IsAccepted(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	for _, pattern := range AcceptedPatterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// DialogPattern renders AcceptedPatterns for a native file dialog filter.
// Brace patterns are expanded since dialogs only understand simple globs.
func DialogPattern() string {
	var out []string
	for _, pattern := range AcceptedPatterns {
		out = append(out, expandBraces(pattern)...)
	}
	return strings.Join(out, ";")
}

// expandBraces expands every {a,b} group of a glob
func expandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	closeIdx := strings.IndexByte(pattern[open:], '}')
	if closeIdx < 0 {
		return []string{pattern}
	}
	closeIdx += open
	var out []string
	for _, alt := range strings.Split(pattern[open+1:closeIdx], ",") {
		out = append(out, expandBraces(pattern[:open]+alt+pattern[closeIdx+1:])...)
	}
	return out
}

// DetectFileTypeAndCompression determines both the file type and compression
// type from the file name, e.g. "products.csv.gz" is CSV compressed with gzip.
// Unknown extensions are treated as CSV.
func DetectFileTypeAndCompression(name string) (FileType, CompressionType) {
	if name == "" {
		return FileTypeUnknown, CompressionNone
	}

	lower := strings.ToLower(name)
	compressionType := CompressionNone
	innerPath := lower

	for ext, ct := range compressionExtensions {
		if strings.HasSuffix(lower, ext) {
			compressionType = ct
			innerPath = strings.TrimSuffix(lower, ext)
			break
		}
	}

	return detectFileTypeFromPath(innerPath), compressionType
}

// detectFileTypeFromPath determines file type from a path (without compression extension)
func detectFileTypeFromPath(path string) FileType {
	switch {
	case strings.HasSuffix(path, ".xlsx"):
		return FileTypeXLSX
	case strings.HasSuffix(path, ".json"):
		return FileTypeJSON
	default:
		return FileTypeCSV
	}
}

// DownloadName builds the exported file name: "<prefix>_<name>". Compressed,
// XLSX and JSON inputs are always exported as CSV so their extension is replaced.
func DownloadName(prefix, name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	fileType, compression := DetectFileTypeAndCompression(base)
	if compression != CompressionNone || fileType != FileTypeCSV {
		lower := strings.ToLower(base)
		for ext := range compressionExtensions {
			if strings.HasSuffix(lower, ext) {
				base = base[:len(base)-len(ext)]
				break
			}
		}
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
	}
	if prefix == "" {
		return base
	}
	return prefix + "_" + base
}
