package app

import (
	"shopicsv/app/rowstore"
)

// RowsPage represents a page of projected rows with metadata
type RowsPage struct {
	Header         []string       `json:"header"`
	DisplayColumns []int          `json:"displayColumns"` // Indexes of the visible columns
	Rows           []rowstore.Row `json:"rows"`
	ReachedEnd     bool           `json:"reachedEnd"`
	Total          int            `json:"total"` // Displayed rows, header slot excluded
}

// FieldValue is one rendered field reported by the frontend
type FieldValue struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}
