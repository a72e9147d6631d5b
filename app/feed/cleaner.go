package feed

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips markup and normalizes whitespace in free-text fields.
// Idempotent: a second pass is a no-op.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	// Go's \s does not cover NBSP
	s = strings.ReplaceAll(s, " ", " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
