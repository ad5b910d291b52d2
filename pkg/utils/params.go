package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBool parses "true"/"false" (case-insensitive). An empty value yields
// defaultValue.
func ParseBool(value string, defaultValue bool) (bool, error) {
	if value == "" {
		return defaultValue, nil
	}
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s is not a valid boolean", value)
	}
}

// ParseInt parses a base-10 integer. An empty value yields defaultValue.
func ParseInt(value string, defaultValue int) (int, error) {
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid number", value)
	}
	return n, nil
}

// ParseFloat parses a float. ok is false when value is empty.
func ParseFloat(value string) (f float64, ok bool, err error) {
	if value == "" {
		return 0, false, nil
	}
	f, err = strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s is not a valid number", value)
	}
	return f, true, nil
}

// SplitList splits a comma-separated value, trimming blanks and dropping
// empty items.
func SplitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// KeyValuePairs converts a flat [k1, v1, k2, v2, ...] array into a map.
func KeyValuePairs(arr []string) (map[string]string, error) {
	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("key-value array must have even length, with each key followed by its value")
	}
	m := make(map[string]string, len(arr)/2)
	for i := 0; i < len(arr); i += 2 {
		m[arr[i]] = arr[i+1]
	}
	return m, nil
}

// NormalizeSearchTerm trims and collapses inner whitespace.
func NormalizeSearchTerm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns a LIKE pattern matching s as a literal substring.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
