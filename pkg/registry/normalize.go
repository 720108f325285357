package registry

import "strings"

// NaturalKey derives the registry matching key from a board's display name:
// trim surrounding whitespace, lower-case, and collapse internal runs of
// whitespace to a single space. "Indeed Jobs" and "  indeed  jobs " collide
// to the same key, which is deliberate: the upstream CSV exports are not
// consistent about either.
func NaturalKey(displayName string) string {
	return strings.Join(strings.Fields(strings.ToLower(displayName)), " ")
}
