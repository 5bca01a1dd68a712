// Package view derives the rows shown by the editor from the authoritative
// rows without ever mutating them.
package view

import (
	"sort"
	"strconv"
	"strings"

	"shopicsv/app/rowstore"
)

// Filter restricts the projected rows. An empty list means no restriction.
type Filter struct {
	IDs   []int    `json:"ids"`
	Types []string `json:"types"`
}

// IsEmpty reports whether the filter lets every row through
func (f Filter) IsEmpty() bool {
	return len(f.IDs) == 0 && len(f.Types) == 0
}

// Key returns a stable cache key for the filter
func (f Filter) Key() string {
	ids := append([]int(nil), f.IDs...)
	sort.Ints(ids)
	types := make([]string, len(f.Types))
	for i, t := range f.Types {
		types[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	sort.Strings(types)

	var b strings.Builder
	b.WriteString("ids=")
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteString("|types=")
	b.WriteString(strings.Join(types, ","))
	return b.String()
}

// Projection is the derived, display-only row sequence
type Projection struct {
	Rows []rowstore.Row `json:"rows"`
	// DisplayedCount excludes the header (or placeholder) slot at index 0
	DisplayedCount int `json:"displayedCount"`
}

// Project applies the id filter, then the type filter, to rows.
//
// The renderer always treats index 0 as the header row. Type filtering drops the
// real header, so an empty placeholder row {id: 0} is put in front of the result
// to keep the remaining rows from shifting by one. Id filtering alone does not
// add it.
func Project(rows []rowstore.Row, f Filter) Projection {
	var out []rowstore.Row
	if len(f.IDs) > 0 {
		allowed := make(map[int]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			allowed[id] = struct{}{}
		}
		for _, r := range rows {
			if _, ok := allowed[r.ID]; ok {
				out = append(out, r.Clone())
			}
		}
	} else {
		out = make([]rowstore.Row, len(rows))
		for i, r := range rows {
			out[i] = r.Clone()
		}
	}

	if len(f.Types) > 0 {
		allowed := make(map[string]struct{}, len(f.Types))
		for _, t := range f.Types {
			allowed[strings.ToUpper(t)] = struct{}{}
		}
		typed := make([]rowstore.Row, 0, len(out)+1)
		typed = append(typed, rowstore.Row{ID: 0, Data: []string{}})
		for _, r := range out {
			if len(r.Data) == 0 {
				continue
			}
			if _, ok := allowed[strings.ToUpper(r.Data[rowstore.ColType])]; ok {
				typed = append(typed, r)
			}
		}
		out = typed
	}

	if out == nil {
		out = []rowstore.Row{}
	}
	count := len(out) - 1
	if count < 0 {
		count = 0
	}
	return Projection{Rows: out, DisplayedCount: count}
}

// AvailableTypes returns the distinct upper-cased resource types of the data rows
func AvailableTypes(rows []rowstore.Row) []string {
	seen := make(map[string]struct{})
	for i, r := range rows {
		if i == 0 || len(r.Data) == 0 {
			continue
		}
		t := strings.ToUpper(strings.TrimSpace(r.Data[rowstore.ColType]))
		if t == "" {
			continue
		}
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
