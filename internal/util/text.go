package util

import "strings"

// NormalizeName collapses internal whitespace runs to single spaces and
// trims the result. Entity names pass through this before any graph write
// so that "Total  Assets " and "Total Assets" merge to one node.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeAliasKey lowercases, strips everything but letters, digits and
// spaces, and collapses whitespace. Used for financial-concept alias lookup.
func NormalizeAliasKey(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
