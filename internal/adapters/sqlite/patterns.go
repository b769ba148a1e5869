package sqlite

import (
	"strings"

	"github.com/dronedb/ddb/internal/domain"
)

// LikeEscape is the character bound to the ESCAPE clause on every LIKE
// query issued by this package; callers pass already-sanitized patterns
// (domain.SanitizeLikePattern) into Store.Match.
const LikeEscape = domain.LikeEscape

// EscapeLiteral escapes LIKE metacharacters in a literal path read back
// from the store (never a user-supplied glob) without applying the '*'
// glob conversion, so the path can be used as an exact LIKE prefix by
// ListChildren.
func EscapeLiteral(path string) string {
	s := strings.ReplaceAll(path, "/", "//")
	s = strings.ReplaceAll(s, "%", "/%")
	s = strings.ReplaceAll(s, "_", "/_")
	return s
}
