package pathutil

import (
	"strings"

	slug "github.com/goliatone/go-slug"
)

// ToMatchKey computes the book-identity slug (spec.md §4.8): diacritic
// stripping, non-alphanumerics collapsed to single spaces, lowercased,
// trimmed. It reuses the slug normalizer's Unicode transliteration, then
// converts its hyphen separators to spaces since a match key is compared,
// never displayed as a URL path segment.
func ToMatchKey(input string) string {
	normalized, err := slug.Normalize(input)
	if err != nil {
		normalized = strings.ToLower(strings.TrimSpace(input))
	}
	spaced := strings.ReplaceAll(normalized, "-", " ")
	spaced = runOfFillerRe.ReplaceAllString(spaced, " ")
	return strings.TrimSpace(spaced)
}
