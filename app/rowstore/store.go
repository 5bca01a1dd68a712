package rowstore

import (
	"fmt"
	"sync"
)

// ColumnCount is the number of cells in a well-formed translation row:
// type, identification, field, locale, status, default content, translated content.
const ColumnCount = 7

// Column indexes of a translation row
const (
	ColType = iota
	ColIdentification
	ColField
	ColLocale
	ColStatus
	ColDefaultContent
	ColTranslatedContent
)

// Row is one record of the translation file. ID is its parse-order position and
// is never renumbered, even when the row is filtered out of a view.
type Row struct {
	ID   int      `json:"id"`
	Data []string `json:"data"`
}

// Clone returns a deep copy of the row
func (r Row) Clone() Row {
	data := make([]string, len(r.Data))
	copy(data, r.Data)
	return Row{ID: r.ID, Data: data}
}

// FromRecords assigns parse-order IDs to decoded records
func FromRecords(records [][]string) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		data := make([]string, len(rec))
		copy(data, rec)
		rows[i] = Row{ID: i, Data: data}
	}
	return rows
}

// Store holds the authoritative ordered rows of the open file.
// Row position equals row ID by construction.
type Store struct {
	mu      sync.RWMutex
	rows    []Row
	version uint64
}

// New creates an empty store
func New() *Store {
	return &Store{}
}

// ReplaceAll swaps the whole content of the store. The rows are copied.
func (s *Store) ReplaceAll(rows []Row) {
	cp := make([]Row, len(rows))
	for i, r := range rows {
		cp[i] = r.Clone()
	}
	s.mu.Lock()
	s.rows = cp
	s.version++
	s.mu.Unlock()
}

// Clear empties the store
func (s *Store) Clear() {
	s.mu.Lock()
	s.rows = nil
	s.version++
	s.mu.Unlock()
}

// Get returns the value of one cell. ok is false when the cell cannot be addressed.
func (s *Store) Get(rowID, col int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rowID < 0 || rowID >= len(s.rows) {
		return "", false
	}
	data := s.rows[rowID].Data
	if col < 0 || col >= len(data) {
		return "", false
	}
	return data[col], true
}

// Set writes one cell
func (s *Store) Set(rowID, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rowID < 0 || rowID >= len(s.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", rowID, len(s.rows))
	}
	data := s.rows[rowID].Data
	if col < 0 || col >= len(data) {
		return fmt.Errorf("column %d out of range for row %d (%d cells)", col, rowID, len(data))
	}
	data[col] = value
	s.version++
	return nil
}

// Rows returns a deep copy of every row, for saving, downloading and filtering
func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Row, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Clone()
	}
	return out
}

// Records returns the cell data only, in row order
func (s *Store) Records() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		rec := make([]string, len(r.Data))
		copy(rec, r.Data)
		out[i] = rec
	}
	return out
}

// Clone returns an independent store with the same content
func (s *Store) Clone() *Store {
	c := New()
	c.ReplaceAll(s.Rows())
	return c
}

// Len returns the number of rows including the header row
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Header returns a copy of row 0, or nil for an empty store
func (s *Store) Header() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.rows) == 0 {
		return nil
	}
	return s.rows[0].Clone().Data
}

// Version changes on every mutation. Views use it to detect stale projections.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// DataRowCount counts well-formed rows, excluding the header row
func (s *Store) DataRowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CountDataRows(s.rows)
}

// CountDataRows counts rows with exactly ColumnCount cells, minus the header row
func CountDataRows(rows []Row) int {
	n := 0
	for _, r := range rows {
		if len(r.Data) == ColumnCount {
			n++
		}
	}
	if n > 0 {
		n--
	}
	return n
}
