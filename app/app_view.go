package app

import (
	"fmt"

	"shopicsv/app/editing"
	"shopicsv/app/view"
)

// DefaultPageSize is used when the frontend asks for a non-positive page size
const DefaultPageSize = 50

// GetRowsPage returns a page of the projected rows. offset counts displayed
// rows, so the header or placeholder slot is never part of a page.
func (a *App) GetRowsPage(offset, limit int) (*RowsPage, error) {
	if a.session == nil {
		return nil, fmt.Errorf("app not initialised")
	}
	page := pageRows(a.session.Projection(), offset, limit)
	page.Header = a.session.Store().Header()
	page.DisplayColumns = a.session.DisplayColumns()
	return page, nil
}

func pageRows(p view.Projection, offset, limit int) *RowsPage {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	page := &RowsPage{Total: p.DisplayedCount}
	if len(p.Rows) <= 1 {
		page.ReachedEnd = true
		return page
	}
	body := p.Rows[1:]
	if offset >= len(body) {
		page.ReachedEnd = true
		return page
	}
	end := offset + limit
	if end >= len(body) {
		end = len(body)
		page.ReachedEnd = true
	}
	page.Rows = body[offset:end]
	return page
}

// SetFilter replaces the id and type filters. Either may be empty.
func (a *App) SetFilter(ids []int, types []string) {
	if a.session == nil {
		return
	}
	a.session.SetFilter(view.Filter{IDs: withHeaderID(ids), Types: types})
}

// withHeaderID keeps the header row in an id filter, since pages skip index 0
func withHeaderID(ids []int) []int {
	if len(ids) == 0 {
		return ids
	}
	for _, id := range ids {
		if id == 0 {
			return ids
		}
	}
	return append([]int{0}, ids...)
}

// ClearFilter shows every row again
func (a *App) ClearFilter() {
	a.SetFilter(nil, nil)
}

// SearchRows returns the ids of rows containing term, for the id filter
func (a *App) SearchRows(term string) []int {
	if a.session == nil {
		return nil
	}
	return a.session.Search(term)
}

// SearchRowsRegex returns the ids of rows matching a regular expression
func (a *App) SearchRowsRegex(expr string) ([]int, error) {
	if a.session == nil {
		return nil, nil
	}
	return a.session.SearchRegex(expr)
}

// GetAvailableTypes lists the resource types of the open file
func (a *App) GetAvailableTypes() []string {
	if a.session == nil {
		return nil
	}
	return a.session.AvailableTypes()
}

// GetDisplayColumns returns the visible column indexes
func (a *App) GetDisplayColumns() []int {
	if a.session == nil {
		return nil
	}
	return a.session.DisplayColumns()
}

// SetDisplayColumns changes the visible columns, saving first when one is hidden
func (a *App) SetDisplayColumns(cols []int) ([]int, error) {
	if a.session == nil {
		return nil, fmt.Errorf("app not initialised")
	}
	return a.session.SetDisplayColumns(a.ctx, cols)
}

// RegisterFields records the fields of a newly rendered page
func (a *App) RegisterFields(fields []FieldValue) {
	if a.session == nil {
		return
	}
	for _, f := range fields {
		a.session.RegisterField(editing.CellID{Row: f.Row, Col: f.Col}, f.Value)
	}
}

// RegisterField records one rendered field
func (a *App) RegisterField(row, col int, value string) {
	if a.session == nil {
		return
	}
	a.session.RegisterField(editing.CellID{Row: row, Col: col}, value)
}

// UpdateField records the latest value typed into a field
func (a *App) UpdateField(row, col int, value string) {
	if a.session == nil {
		return
	}
	a.session.UpdateField(editing.CellID{Row: row, Col: col}, value)
}

// UnregisterField drops a field that is no longer rendered
func (a *App) UnregisterField(row, col int) {
	if a.session == nil {
		return
	}
	a.session.UnregisterField(editing.CellID{Row: row, Col: col})
}

// ClearFields drops every registered field
func (a *App) ClearFields() {
	if a.session != nil {
		a.session.ClearFields()
	}
}

// IsDirty reports whether any rendered field has unsaved changes
func (a *App) IsDirty() bool {
	return a.session != nil && a.session.Dirty()
}
