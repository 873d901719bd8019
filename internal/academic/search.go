package academic

import "strings"

// MatchesSearch reports whether query occurs case-insensitively in the
// space-joined fields. A blank query matches everything.
func MatchesSearch(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(fields, " ")), q)
}
