package domain

import "strings"

// LikeEscape is the character used to escape LIKE metacharacters in
// sanitized patterns; SQL LIKE requires an explicit ESCAPE clause
// naming it.
const LikeEscape = "/"

// SanitizeLikePattern converts a glob-style match/remove pattern into a
// SQL LIKE pattern using '/' as the escape character. The
// substitutions are applied in order: '/' -> '//', '%' -> '/%', '_' ->
// '/_', and finally '*' -> '%' (glob-to-LIKE). An empty result becomes '%'
// so an empty input pattern matches everything.
func SanitizeLikePattern(input string) string {
	s := input
	s = strings.ReplaceAll(s, "/", "//")
	s = strings.ReplaceAll(s, "%", "/%")
	s = strings.ReplaceAll(s, "_", "/_")
	s = strings.ReplaceAll(s, "*", "%")
	if s == "" {
		return "%"
	}
	return s
}

// DescendantPattern extends a sanitized folder pattern to also match every
// descendant path, matching the '<path>//%' rule used by remove and by
// match when isFolder is set.
func DescendantPattern(sanitized string) string {
	return sanitized + "//%"
}
