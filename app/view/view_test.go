package view

import (
	"reflect"
	"testing"

	"shopicsv/app/rowstore"
)

func fiveRows() []rowstore.Row {
	return rowstore.FromRecords([][]string{
		{"Type", "Identification", "Field", "Locale", "Status", "Default content", "Translated content"},
		{"PRODUCT", "1", "title", "fr", "", "Shirt", "Chemise"},
		{"email", "2", "subject", "fr", "", "Hello", "Bonjour"},
		{"PRODUCT", "3", "body_html", "fr", "", "<p>Soft</p>", ""},
		{"COLLECTION", "4", "title", "fr", "", "Summer", "Été"},
	})
}

func ids(rows []rowstore.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestProjectNoFilter(t *testing.T) {
	rows := fiveRows()
	p := Project(rows, Filter{})
	if !reflect.DeepEqual(ids(p.Rows), []int{0, 1, 2, 3, 4}) {
		t.Errorf("unexpected ids %v", ids(p.Rows))
	}
	if p.DisplayedCount != 4 {
		t.Errorf("DisplayedCount = %d, want 4", p.DisplayedCount)
	}
}

func TestProjectIDFilterKeepsOrderWithoutPlaceholder(t *testing.T) {
	p := Project(fiveRows(), Filter{IDs: []int{3, 1}})
	if !reflect.DeepEqual(ids(p.Rows), []int{1, 3}) {
		t.Errorf("expected rows [1 3], got %v", ids(p.Rows))
	}
	if p.DisplayedCount != 1 {
		t.Errorf("DisplayedCount = %d, want 1", p.DisplayedCount)
	}
}

func TestProjectTypeFilterPrependsPlaceholder(t *testing.T) {
	rows := fiveRows()
	p := Project(rows, Filter{Types: []string{"EMAIL"}})

	want := []rowstore.Row{{ID: 0, Data: []string{}}, rows[2]}
	if !reflect.DeepEqual(p.Rows, want) {
		t.Fatalf("got %+v, want %+v", p.Rows, want)
	}
	if p.DisplayedCount != 1 {
		t.Errorf("DisplayedCount = %d, want 1", p.DisplayedCount)
	}
}

func TestProjectFiltersCompose(t *testing.T) {
	p := Project(fiveRows(), Filter{IDs: []int{1, 2, 3}, Types: []string{"product"}})
	if !reflect.DeepEqual(ids(p.Rows), []int{0, 1, 3}) {
		t.Errorf("got %v", ids(p.Rows))
	}
	if len(p.Rows[0].Data) != 0 {
		t.Error("expected placeholder at index 0")
	}
	if p.DisplayedCount != 2 {
		t.Errorf("DisplayedCount = %d, want 2", p.DisplayedCount)
	}
}

func TestProjectEmptyResults(t *testing.T) {
	p := Project(nil, Filter{})
	if p.Rows == nil || len(p.Rows) != 0 || p.DisplayedCount != 0 {
		t.Errorf("unexpected projection of empty store: %+v", p)
	}

	p = Project(fiveRows(), Filter{IDs: []int{42}})
	if len(p.Rows) != 0 || p.DisplayedCount != 0 {
		t.Errorf("expected empty projection, got %+v", p)
	}

	p = Project(fiveRows(), Filter{Types: []string{"THEME"}})
	if len(p.Rows) != 1 || p.DisplayedCount != 0 {
		t.Errorf("expected only the placeholder, got %+v", p)
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	rows := fiveRows()
	p := Project(rows, Filter{Types: []string{"PRODUCT"}})
	p.Rows[1].Data[6] = "changed"
	if rows[1].Data[6] != "Chemise" {
		t.Errorf("projection shares memory with the store rows")
	}
}

func TestProjectSkipsEmptyRowsForTypeFilter(t *testing.T) {
	rows := append(fiveRows(), rowstore.Row{ID: 5, Data: nil})
	p := Project(rows, Filter{Types: []string{"PRODUCT"}})
	if !reflect.DeepEqual(ids(p.Rows), []int{0, 1, 3}) {
		t.Errorf("got %v", ids(p.Rows))
	}
}

func TestFilterKeyIsOrderInsensitive(t *testing.T) {
	a := Filter{IDs: []int{3, 1}, Types: []string{"email", "PRODUCT"}}
	b := Filter{IDs: []int{1, 3}, Types: []string{"product", "EMAIL"}}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if (Filter{}).Key() == a.Key() {
		t.Error("empty filter should have its own key")
	}
	if !(Filter{}).IsEmpty() || a.IsEmpty() {
		t.Error("IsEmpty returned wrong result")
	}
}

func TestAvailableTypes(t *testing.T) {
	got := AvailableTypes(fiveRows())
	want := []string{"COLLECTION", "EMAIL", "PRODUCT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSearch(t *testing.T) {
	rows := fiveRows()
	if got := Search(rows, "chem"); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Search(chem) = %v", got)
	}
	if got := Search(rows, "TITLE"); !reflect.DeepEqual(got, []int{1, 4}) {
		t.Errorf("Search(TITLE) = %v", got)
	}
	if got := Search(rows, "type"); got != nil {
		t.Errorf("header row must not match, got %v", got)
	}
	if got := Search(rows, "  "); got != nil {
		t.Errorf("blank term should clear the filter, got %v", got)
	}
}

func TestSearchRegex(t *testing.T) {
	rows := fiveRows()
	got, err := SearchRegex(rows, `^<p>`)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("got %v", got)
	}
	if _, err := SearchRegex(rows, "("); err == nil {
		t.Error("expected compile error")
	}
}

func TestCacheHitsAndInvalidatesOnVersionChange(t *testing.T) {
	store := rowstore.New()
	store.ReplaceAll(fiveRows())
	c := NewCache(2)
	f := Filter{Types: []string{"PRODUCT"}}

	first := c.Project(store, f)
	second := c.Project(store, f)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("cached projection differs")
	}
	if st := c.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("unexpected stats %+v", st)
	}

	if err := store.Set(1, 6, "Chemise bleue"); err != nil {
		t.Fatal(err)
	}
	third := c.Project(store, f)
	if third.Rows[1].Data[6] != "Chemise bleue" {
		t.Errorf("stale projection returned after store change")
	}

	second.Rows[1].Data[6] = "mutated"
	if again := c.Project(store, f); again.Rows[1].Data[6] != "Chemise bleue" {
		t.Error("cache entry was mutated through a returned projection")
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	store := rowstore.New()
	store.ReplaceAll(fiveRows())
	c := NewCache(2)
	c.Project(store, Filter{IDs: []int{1}})
	c.Project(store, Filter{IDs: []int{2}})
	c.Project(store, Filter{IDs: []int{3}})
	if st := c.Stats(); st.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", st.Entries)
	}
	c.Invalidate()
	if st := c.Stats(); st.Entries != 0 {
		t.Errorf("expected empty cache, got %d", st.Entries)
	}
}
