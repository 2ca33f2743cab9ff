package common

import "strings"

// MatchesAny reports whether query occurs in any of the fields, ignoring case.
// An empty query matches everything.
func MatchesAny(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
