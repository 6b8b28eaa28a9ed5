package wordlist

import (
	"regexp"
	"strings"
)

// Characters allowed to survive in a slug: ASCII alphanumerics, CJK unified
// ideographs, hiragana, and katakana. Everything else collapses to "-".
var slugPattern = regexp.MustCompile(`[^a-z0-9一-龠ぁ-んァ-ン]+`)

// Slugify normalizes a term into its deduplication key: lowercased, with
// every run of disallowed characters replaced by a single separator.
func Slugify(s string) string {
	return slugPattern.ReplaceAllString(strings.ToLower(s), "-")
}
