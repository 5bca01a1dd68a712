package fileloader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// utf8BOM is stripped from the start of CSV input; spreadsheet exports often carry one
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ParseCSV decodes CSV data into records. Rows may have any number of fields
// so a damaged line does not abort the whole file.
func ParseCSV(data []byte) ([][]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	// Allow variable number of fields per record to handle corrupted CSV files
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse CSV line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteCSV encodes records as CSV with CRLF line endings
func WriteCSV(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
