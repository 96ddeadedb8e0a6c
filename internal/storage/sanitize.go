package storage

import "strings"

// sanitizeSearchTerm escapes SQLite LIKE special characters so user-supplied
// course names cannot act as wildcards:
//
//	% (matches any sequence of characters)
//	_ (matches any single character)
//	\ (escape character when specified)
func sanitizeSearchTerm(term string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\", // Escape backslash first
		"%", "\\%",
		"_", "\\_",
	)
	return replacer.Replace(term)
}
