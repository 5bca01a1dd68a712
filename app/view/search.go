package view

import (
	"regexp"
	"strings"

	"shopicsv/app/rowstore"
)

// SearchMaxResults caps the number of ids returned by a search
const SearchMaxResults = 100000

// Search returns the ids of data rows with a cell containing term (case-insensitive).
// The header row is never matched. A blank term returns nil, which clears the id filter.
func Search(rows []rowstore.Row, term string) []int {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)
	var ids []int
	for i, r := range rows {
		if i == 0 {
			continue
		}
		for _, cell := range r.Data {
			if strings.Contains(strings.ToLower(cell), needle) {
				ids = append(ids, r.ID)
				break
			}
		}
		if len(ids) >= SearchMaxResults {
			break
		}
	}
	return ids
}

// SearchRegex is Search with a regular expression. The expression is compiled
// case-insensitively.
func SearchRegex(rows []rowstore.Row, expr string) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, err
	}
	var ids []int
	for i, r := range rows {
		if i == 0 {
			continue
		}
		for _, cell := range r.Data {
			if re.MatchString(cell) {
				ids = append(ids, r.ID)
				break
			}
		}
		if len(ids) >= SearchMaxResults {
			break
		}
	}
	return ids, nil
}
