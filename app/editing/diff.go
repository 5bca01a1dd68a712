package editing

import "fmt"

// ComputeEdits compares every live field with the store and returns the cells
// whose UI value differs. A field whose value or backing cell is unreachable
// is skipped with a warning instead of failing the whole pass.
func ComputeEdits(reg *Registry, store CellReader, logger Logger) (EditSet, bool) {
	var edits EditSet
	for _, h := range reg.Handles() {
		id := h.CellID()
		value, ok := h.Value()
		if !ok {
			warn(logger, fmt.Sprintf("Error while checking for edits: field %s has no value", id))
			continue
		}
		saved, ok := store.Get(id.Row, id.Col)
		if !ok {
			warn(logger, fmt.Sprintf("Error while checking for edits: cell %s is not in the file", id))
			continue
		}
		if value != saved {
			edits = append(edits, Edit{Cell: id, Value: value})
		}
	}
	return edits, len(edits) > 0
}

// ApplyEdits writes every edit into the store. All targets are validated
// before the first write so a bad edit leaves the store untouched.
func ApplyEdits(edits EditSet, store CellWriter) error {
	for _, e := range edits {
		if _, ok := store.Get(e.Cell.Row, e.Cell.Col); !ok {
			return fmt.Errorf("apply edit %s: %w", e.Cell, ErrCellOutOfRange)
		}
	}
	for _, e := range edits {
		if err := store.Set(e.Cell.Row, e.Cell.Col, e.Value); err != nil {
			return fmt.Errorf("apply edit %s: %w", e.Cell, err)
		}
	}
	return nil
}

func warn(logger Logger, msg string) {
	if logger != nil {
		logger.Log("warning", msg)
	}
}
