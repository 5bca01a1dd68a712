package session

import (
	"shopicsv/app/view"
)

// SetFilter replaces the active id and type filters
func (c *Controller) SetFilter(f view.Filter) {
	c.mu.Lock()
	c.filter = view.Filter{
		IDs:   append([]int(nil), f.IDs...),
		Types: append([]string(nil), f.Types...),
	}
	c.mu.Unlock()
}

// Filter returns the active filters
func (c *Controller) Filter() view.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Projection returns the rows to display under the active filters
func (c *Controller) Projection() view.Projection {
	return c.cache.Project(c.store, c.Filter())
}

// Search returns the ids of data rows containing term
func (c *Controller) Search(term string) []int {
	return view.Search(c.store.Rows(), term)
}

// SearchRegex returns the ids of data rows matching expr
func (c *Controller) SearchRegex(expr string) ([]int, error) {
	return view.SearchRegex(c.store.Rows(), expr)
}

// AvailableTypes lists the distinct row types of the open file
func (c *Controller) AvailableTypes() []string {
	return view.AvailableTypes(c.store.Rows())
}

// Info describes the open file
func (c *Controller) Info() Info {
	projection := c.Projection()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		State:          c.state.String(),
		Name:           c.name,
		Size:           c.size,
		LastModified:   c.lastModified,
		SavedAt:        c.savedAt,
		DataRows:       c.store.DataRowCount(),
		DisplayedCount: projection.DisplayedCount,
		Columns:        append([]int(nil), c.display...),
	}
}
