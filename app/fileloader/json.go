package fileloader

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// ParseJSON decodes JSON data and extracts records with a JSONPath expression.
// An empty expression selects the document root.
func ParseJSON(data []byte, expression string) ([][]string, error) {
	jsonData, err := parseJSONData(data)
	if err != nil {
		return nil, err
	}
	if expression == "" {
		expression = "$"
	}
	return ApplyJSONPath(jsonData, expression)
}

// parseJSONData parses a single JSON document, or a stream of documents
// separated by whitespace. A stream becomes an array with one element per
// document.
func parseJSONData(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	var docs []any
	p := &oj.Parser{}
	if _, err := p.Parse(data, func(v any) bool {
		docs = append(docs, v)
		return false
	}); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	switch len(docs) {
	case 0:
		return nil, fmt.Errorf("no JSON value found")
	case 1:
		return docs[0], nil
	default:
		return docs, nil
	}
}
