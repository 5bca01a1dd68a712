package app

import (
	"fmt"
	"strings"

	"shopicsv/app/rowstore"

	clipboard "golang.design/x/clipboard"
)

// Maximum clipboard size in bytes (10MB) - helps avoid X11 BadLength errors on Linux
const maxClipboardSize = 10 * 1024 * 1024

// CopyRowsRequest selects what to copy. An empty ID list copies every
// displayed row. Columns default to the visible columns.
type CopyRowsRequest struct {
	IDs           []int `json:"ids"`
	Columns       []int `json:"columns"`
	IncludeHeader bool  `json:"includeHeader"`
}

// CopyRowsResult reports how many rows were copied
type CopyRowsResult struct {
	RowsCopied int `json:"rowsCopied"`
}

// safeClipboardWrite attempts to write data to clipboard with panic recovery.
// Returns an error if the write fails or data is too large.
func safeClipboardWrite(format clipboard.Format, data []byte) (err error) {
	if len(data) > maxClipboardSize {
		return fmt.Errorf("data too large for clipboard (%d bytes, max %d bytes / %.1f MB). Try selecting fewer rows",
			len(data), maxClipboardSize, float64(maxClipboardSize)/(1024*1024))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write failed: %v", r)
		}
	}()

	clipboard.Write(format, data)
	return nil
}

// CopyRowsToClipboard copies displayed rows as tab separated text
func (a *App) CopyRowsToClipboard(req CopyRowsRequest) (*CopyRowsResult, error) {
	if a == nil || a.session == nil {
		return nil, fmt.Errorf("app not initialised")
	}

	a.clipOnce.Do(func() {
		if err := clipboard.Init(); err == nil {
			a.clipOK = true
		} else {
			a.clipOK = false
			a.Log("error", fmt.Sprintf("Clipboard init failed: %v", err))
		}
	})
	if !a.clipOK {
		return nil, fmt.Errorf("clipboard not available")
	}

	cols := req.Columns
	if len(cols) == 0 {
		cols = a.session.DisplayColumns()
	}
	projection := a.session.Projection()
	var rows []rowstore.Row
	if len(projection.Rows) > 1 {
		rows = projection.Rows[1:]
	}

	var header []string
	if req.IncludeHeader {
		header = a.session.Store().Header()
	}
	text, copied := formatRows(header, selectRows(rows, req.IDs), cols)
	if copied == 0 {
		return &CopyRowsResult{}, nil
	}

	if err := safeClipboardWrite(clipboard.FmtText, []byte(text)); err != nil {
		a.Log("error", fmt.Sprintf("Clipboard write failed: %v", err))
		return nil, fmt.Errorf("failed to copy to clipboard: %v", err)
	}
	a.Log("info", fmt.Sprintf("Copied %d rows (%d bytes) to clipboard", copied, len(text)))
	return &CopyRowsResult{RowsCopied: copied}, nil
}

// selectRows keeps the rows whose id is in ids, all rows when ids is empty
func selectRows(rows []rowstore.Row, ids []int) []rowstore.Row {
	if len(ids) == 0 {
		return rows
	}
	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]rowstore.Row, 0, len(ids))
	for _, r := range rows {
		if _, ok := wanted[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// formatRows renders the given columns as TSV. Tabs and line breaks inside
// cells become spaces so every row stays on one line.
func formatRows(header []string, rows []rowstore.Row, cols []int) (string, int) {
	sanitize := func(s string) string {
		ss := strings.ReplaceAll(s, "\t", " ")
		ss = strings.ReplaceAll(ss, "\r", " ")
		ss = strings.ReplaceAll(ss, "\n", " ")
		return ss
	}
	writeLine := func(b *strings.Builder, data []string) {
		for i, c := range cols {
			if i > 0 {
				b.WriteByte('\t')
			}
			if c >= 0 && c < len(data) {
				b.WriteString(sanitize(data[c]))
			}
		}
		b.WriteByte('\n')
	}

	var b strings.Builder
	if len(header) > 0 {
		writeLine(&b, header)
	}
	for _, r := range rows {
		writeLine(&b, r.Data)
	}
	return b.String(), len(rows)
}
