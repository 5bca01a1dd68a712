// Package editing tracks which rendered cells diverge from the authoritative
// rows and writes those edits back on save.
package editing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCellOutOfRange is returned when an edit targets a cell the store cannot address
var ErrCellOutOfRange = errors.New("cell out of range")

// Logger interface for edit tracking warnings
type Logger interface {
	Log(level, message string)
}

// CellID addresses one cell of the row store
type CellID struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String renders the "{row}-{col}" key used by the frontend
func (c CellID) String() string {
	return strconv.Itoa(c.Row) + "-" + strconv.Itoa(c.Col)
}

// ParseCellID parses a "{row}-{col}" key coming from the frontend
func ParseCellID(kid string) (CellID, error) {
	rowStr, colStr, ok := strings.Cut(strings.TrimSpace(kid), "-")
	if !ok {
		return CellID{}, fmt.Errorf("invalid cell key %q: missing separator", kid)
	}
	row, err := strconv.Atoi(rowStr)
	if err != nil || row < 0 {
		return CellID{}, fmt.Errorf("invalid cell key %q: bad row", kid)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 0 {
		return CellID{}, fmt.Errorf("invalid cell key %q: bad column", kid)
	}
	return CellID{Row: row, Col: col}, nil
}

// FieldHandle is the live view of one rendered editable field. It never owns
// row data; it only reports what the UI currently shows.
type FieldHandle interface {
	CellID() CellID
	// Value returns the current UI value. ok is false when the UI cannot
	// provide one (the field is mounted but its input is not reachable).
	Value() (value string, ok bool)
}

// CellReader is the read side of the row store used by the diff
type CellReader interface {
	Get(rowID, col int) (string, bool)
}

// CellWriter is the write side of the row store used by the reconciler
type CellWriter interface {
	CellReader
	Set(rowID, col int, value string) error
}

// Edit is one dirty cell with the UI value captured when the diff ran
type Edit struct {
	Cell  CellID `json:"cell"`
	Value string `json:"value"`
}

// EditSet is the ordered set of dirty cells found by one diff pass
type EditSet []Edit

// Cells returns the cell identifiers of the set
func (es EditSet) Cells() []CellID {
	out := make([]CellID, len(es))
	for i, e := range es {
		out[i] = e.Cell
	}
	return out
}

// Contains reports whether the set has an edit for the cell
func (es EditSet) Contains(c CellID) bool {
	for _, e := range es {
		if e.Cell == c {
			return true
		}
	}
	return false
}
