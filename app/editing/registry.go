package editing

import (
	"sort"
	"sync"
)

// Registry maps cell identifiers to the fields rendered on the current page.
// Entries come and go as the frontend mounts and unmounts rows.
type Registry struct {
	mu     sync.RWMutex
	fields map[CellID]FieldHandle
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{fields: make(map[CellID]FieldHandle)}
}

// Register adds or replaces the handle for its cell
func (r *Registry) Register(h FieldHandle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.fields[h.CellID()] = h
	r.mu.Unlock()
}

// Unregister drops the handle for a cell, if any
func (r *Registry) Unregister(id CellID) {
	r.mu.Lock()
	delete(r.fields, id)
	r.mu.Unlock()
}

// Lookup returns the live handle for a cell
func (r *Registry) Lookup(id CellID) (FieldHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.fields[id]
	return h, ok
}

// Clear drops every handle (page change, file close)
func (r *Registry) Clear() {
	r.mu.Lock()
	r.fields = make(map[CellID]FieldHandle)
	r.mu.Unlock()
}

// Len returns the number of live handles
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

// Handles returns the live handles ordered by row, then column
func (r *Registry) Handles() []FieldHandle {
	r.mu.RLock()
	out := make([]FieldHandle, 0, len(r.fields))
	for _, h := range r.fields {
		out = append(out, h)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CellID(), out[j].CellID()
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return out
}

// BufferedField is a FieldHandle fed by value updates from the frontend
type BufferedField struct {
	id    CellID
	mu    sync.RWMutex
	value string
	set   bool
}

// NewBufferedField creates a field that has not reported a value yet
func NewBufferedField(id CellID) *BufferedField {
	return &BufferedField{id: id}
}

// NewBufferedFieldWithValue creates a field with its initial rendered value
func NewBufferedFieldWithValue(id CellID, value string) *BufferedField {
	return &BufferedField{id: id, value: value, set: true}
}

// CellID implements FieldHandle
func (f *BufferedField) CellID() CellID {
	return f.id
}

// Value implements FieldHandle
func (f *BufferedField) Value() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value, f.set
}

// SetValue records the latest UI value
func (f *BufferedField) SetValue(v string) {
	f.mu.Lock()
	f.value = v
	f.set = true
	f.mu.Unlock()
}
