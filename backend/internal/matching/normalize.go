package matching

import "strings"

// NormalizeLocation lowercases a free-text location and collapses runs of
// whitespace. The result keys geocode caches and decides same-place checks.
func NormalizeLocation(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(location)), " ")
}
