package render

import (
	"sort"
	"strconv"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

// sortedKeys returns map keys in sorted order for deterministic output
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
