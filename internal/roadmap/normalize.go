package roadmap

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize returns the dedup key for a query: trimmed and lower-cased.
// It is never shown to users; titles and prompts keep the original casing.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return cases.Upper(language.Und).String(s[:size]) + s[size:]
}

// WikiSlug turns a query into a Wikipedia article slug by replacing each
// whitespace run with an underscore.
func WikiSlug(query string) string {
	return whitespaceRun.ReplaceAllString(query, "_")
}
