package app

import (
	"strings"
	"testing"

	"shopicsv/app/rowstore"
	"shopicsv/app/settings"
	"shopicsv/app/view"
)

func sampleProjection() view.Projection {
	rows := rowstore.FromRecords([][]string{
		{"Type", "Identification", "Field", "Locale", "Market", "Default content", "Translated content"},
		{"PRODUCT", "1", "title", "fr", "", "Hat", "Chapeau"},
		{"PRODUCT", "2", "body_html", "fr", "", "<p>A\tB</p>\n", ""},
		{"COLLECTION", "3", "title", "fr", "", "Sale", "Soldes"},
	})
	return view.Project(rows, view.Filter{})
}

func TestPageRows(t *testing.T) {
	p := sampleProjection()
	tests := []struct {
		name    string
		offset  int
		limit   int
		wantIDs []int
		end     bool
	}{
		{"first page", 0, 2, []int{1, 2}, false},
		{"last page", 2, 2, []int{3}, true},
		{"exact end", 1, 2, []int{2, 3}, true},
		{"past end", 5, 2, nil, true},
		{"negative offset", -3, 1, []int{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := pageRows(p, tt.offset, tt.limit)
			if page.Total != 3 {
				t.Errorf("expected total 3, got %d", page.Total)
			}
			if page.ReachedEnd != tt.end {
				t.Errorf("ReachedEnd = %v, want %v", page.ReachedEnd, tt.end)
			}
			if len(page.Rows) != len(tt.wantIDs) {
				t.Fatalf("expected %d rows, got %d", len(tt.wantIDs), len(page.Rows))
			}
			for i, id := range tt.wantIDs {
				if page.Rows[i].ID != id {
					t.Errorf("row %d: got id %d, want %d", i, page.Rows[i].ID, id)
				}
			}
		})
	}

	t.Run("type filter skips placeholder", func(t *testing.T) {
		rows := rowstore.FromRecords([][]string{{"Type"}, {"PRODUCT"}, {"EMAIL"}})
		page := pageRows(view.Project(rows, view.Filter{Types: []string{"email"}}), 0, 0)
		if len(page.Rows) != 1 || page.Rows[0].ID != 2 || page.Total != 1 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("empty projection", func(t *testing.T) {
		page := pageRows(view.Projection{}, 0, 10)
		if !page.ReachedEnd || len(page.Rows) != 0 {
			t.Errorf("unexpected page %+v", page)
		}
	})
}

func TestWithHeaderID(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want []int
	}{
		{"empty stays empty", nil, nil},
		{"header added", []int{3, 1}, []int{0, 3, 1}},
		{"header kept once", []int{2, 0}, []int{2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := withHeaderID(tt.ids)
			if len(got) != len(tt.want) {
				t.Fatalf("withHeaderID(%v) = %v, want %v", tt.ids, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("withHeaderID(%v) = %v, want %v", tt.ids, got, tt.want)
				}
			}
		})
	}
}

func TestFormatRows(t *testing.T) {
	p := sampleProjection()
	rows := selectRows(p.Rows[1:], []int{2, 3})
	text, n := formatRows(p.Rows[0].Data, rows, []int{rowstore.ColField, rowstore.ColDefaultContent, rowstore.ColTranslatedContent})
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", text)
	}
	if lines[0] != "Field\tDefault content\tTranslated content" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "body_html\t<p>A B</p> \t" {
		t.Errorf("tabs and newlines not sanitized: %q", lines[1])
	}
	if lines[2] != "title\tSale\tSoldes" {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestSelectRowsWithoutIDs(t *testing.T) {
	p := sampleProjection()
	if got := selectRows(p.Rows[1:], nil); len(got) != 3 {
		t.Errorf("expected every row, got %d", len(got))
	}
}

func TestGetSavedWindowSize(t *testing.T) {
	t.Setenv(settings.ConfigDirEnv, t.TempDir())
	svc := settings.NewSettingsService()
	a := NewApp(svc)

	w, h, err := a.GetSavedWindowSize()
	if err != nil {
		t.Fatal(err)
	}
	defaults := settings.Defaults()
	if w != defaults.WindowWidth || h != defaults.WindowHeight {
		t.Errorf("expected default size, got %dx%d", w, h)
	}

	if err := a.SaveWindowSize(200, 100); err == nil {
		t.Error("expected error for a tiny window")
	}
	if err := a.SaveWindowSize(1600, 900); err != nil {
		t.Fatal(err)
	}
	w, h, _ = a.GetSavedWindowSize()
	if w != 1600 || h != 900 {
		t.Errorf("expected 1600x900, got %dx%d", w, h)
	}
}

func TestBindingsWithoutStartup(t *testing.T) {
	a := NewApp(settings.NewSettingsService())
	if info := a.GetFileInfo(); info.State != "empty" {
		t.Errorf("expected empty state, got %q", info.State)
	}
	if a.IsDirty() || a.IsLoggedIn() {
		t.Error("nothing should be dirty or logged in before startup")
	}
	if _, err := a.SaveFile(); err == nil {
		t.Error("expected error before startup")
	}
}
