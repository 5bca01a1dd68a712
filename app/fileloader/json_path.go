package fileloader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// TranslationHeader is the column order of a translation export. JSON objects
// carrying these keys are laid out in this order instead of alphabetically.
var TranslationHeader = []string{
	"Type",
	"Identification",
	"Field",
	"Locale",
	"Status",
	"Default content",
	"Translated content",
}

// valueToString converts a value to a string representation.
// Objects and arrays are JSON encoded.
func valueToString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}, []interface{}:
		jsonBytes, err := oj.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(jsonBytes)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ApplyJSONPath applies a JSONPath expression to JSON data and returns records.
// The expression should return either:
// - An array of objects: the keys become the header row
// - An array of arrays: the first array is the header row
func ApplyJSONPath(data interface{}, expression string) ([][]string, error) {
	if expression == "" {
		return nil, fmt.Errorf("JSONPath expression is empty")
	}

	x, err := jp.ParseString(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression: %w", err)
	}

	results := x.Get(data)
	if len(results) == 0 {
		return nil, fmt.Errorf("JSONPath expression returned no results")
	}

	arr, ok := results[0].([]interface{})
	if !ok {
		return nil, fmt.Errorf("JSONPath expression must return an array")
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("JSONPath expression returned empty array")
	}

	switch arr[0].(type) {
	case map[string]interface{}:
		return objectsToRecords(arr), nil
	case []interface{}:
		rows := make([][]string, 0, len(arr))
		for _, item := range arr {
			itemArr, ok := item.([]interface{})
			if !ok {
				continue // Skip non-array items
			}
			row := make([]string, len(itemArr))
			for i, val := range itemArr {
				row[i] = valueToString(val)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	return nil, fmt.Errorf("JSONPath expression must return an array of objects or an array of arrays")
}

// objectsToRecords collects the union of keys as the header and builds one row per object
func objectsToRecords(arr []interface{}) [][]string {
	keySet := make(map[string]bool)
	var keys []string
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for key := range obj {
			if !keySet[key] {
				keySet[key] = true
				keys = append(keys, key)
			}
		}
	}

	header := orderHeader(keys)
	rows := make([][]string, 0, len(arr)+1)
	rows = append(rows, header)
	for _, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue // Skip non-object items
		}
		row := make([]string, len(header))
		for i, key := range header {
			row[i] = valueToString(obj[key])
		}
		rows = append(rows, row)
	}
	return rows
}

// orderHeader puts known translation columns first, in export order, and the
// remaining keys after them alphabetically
func orderHeader(keys []string) []string {
	present := make(map[string]string, len(keys))
	for _, k := range keys {
		present[strings.ToLower(k)] = k
	}

	header := make([]string, 0, len(keys))
	used := make(map[string]bool, len(keys))
	for _, col := range TranslationHeader {
		if k, ok := present[strings.ToLower(col)]; ok && !used[k] {
			header = append(header, k)
			used[k] = true
		}
	}

	var rest []string
	for _, k := range keys {
		if !used[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(header, rest...)
}
