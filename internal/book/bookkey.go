package book

import (
	"strings"

	"github.com/kohlsync/core/internal/pathutil"
)

// Key is the secondary identity used when a UID is unavailable (spec.md §3):
// "<authors-match-key>::<title-match-key>".
type Key string

// ComputeKey derives a NormalizedBook's BookKey. Authors that look like URLs
// contribute an empty authors segment, since a URL isn't a usable
// disambiguator and would otherwise make two different books with a shared
// placeholder "author" collide (spec.md §3).
func ComputeKey(nb NormalizedBook) Key {
	authorsKey := ""
	if !anyAuthorIsURL(nb.Authors) {
		authorsKey = pathutil.ToMatchKey(strings.Join(nb.Authors, " "))
	}
	titleKey := pathutil.ToMatchKey(nb.Title)
	return Key(authorsKey + "::" + titleKey)
}

func anyAuthorIsURL(authors []string) bool {
	for _, a := range authors {
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			return true
		}
	}
	return false
}
