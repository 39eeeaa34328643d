package book

import (
	"fmt"
	"strings"

	"github.com/kohlsync/core/internal/uid"
)

// FormatOptions configures how a NormalizedBook is rendered to frontmatter
// (spec.md §4.2 stage 3, driven by the plugin's settings).
type FormatOptions struct {
	KeywordsAsWikilinks bool
	KeywordsAsTags      bool
}

// Format renders nb into a frontmatter Document with the fixed key order
// spec.md §4.2 mandates. Contextual filtering drops progress for completed
// books, always drops sessionCount, and only shows readingStreak/
// avgSessionDuration while the status is ongoing.
func Format(nb NormalizedBook, opts FormatOptions) *uid.Document {
	doc := &uid.Document{Value: map[string]any{}}

	set := func(key string, value any) {
		doc.Order = append(doc.Order, key)
		doc.Value[key] = value
	}

	if nb.Title != "" {
		set("title", nb.Title)
	}
	if len(nb.Authors) > 0 {
		set("authors", asWikilinks(nb.Authors))
	}
	if nb.Description != "" {
		set("description", nb.Description)
	}
	if len(nb.Keywords) > 0 {
		set("keywords", formatKeywords(nb.Keywords, opts))
	}
	if nb.Series != "" {
		set("series", nb.Series)
	}
	if nb.Language != "" {
		set("language", nb.Language)
	}
	if nb.Pages > 0 {
		set("pages", nb.Pages)
	}
	if nb.Rating != nil {
		set("rating", *nb.Rating)
	}
	if nb.ReadingStatus != "" {
		set("readingStatus", string(nb.ReadingStatus))
	}
	if nb.ProgressPercent != nil && nb.ReadingStatus != StatusCompleted {
		set("progress", fmt.Sprintf("%d%%", *nb.ProgressPercent))
	}
	if nb.ReadingStreak != nil && nb.ReadingStatus == StatusOngoing {
		set("readingStreak", *nb.ReadingStreak)
	}
	if nb.FirstRead != nil {
		set("firstRead", nb.FirstRead.Format("2006-01-02"))
	}
	if nb.LastRead != nil {
		set("lastRead", nb.LastRead.Format("2006-01-02"))
	}
	if nb.ReadTimeSeconds != nil {
		set("readTime", formatDuration(*nb.ReadTimeSeconds))
	}
	if nb.AverageTimePerPage != nil {
		set("averageTimePerPage", formatDuration(int(*nb.AverageTimePerPage)))
	}
	if nb.AvgSessionDuration != nil && nb.ReadingStatus == StatusOngoing {
		set("avgSessionDuration", formatDuration(*nb.AvgSessionDuration))
	}
	if nb.HighlightCount != nil {
		set("highlightCount", *nb.HighlightCount)
	}
	if nb.NoteCount != nil {
		set("noteCount", *nb.NoteCount)
	}
	// sessionCount is always hidden from display (spec.md §4.2 stage 3).

	return doc
}

func asWikilinks(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "[[" + v + "]]"
	}
	return out
}

func formatKeywords(keywords []string, opts FormatOptions) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		switch {
		case opts.KeywordsAsWikilinks && opts.KeywordsAsTags:
			out[i] = "[[" + k + "]] #" + tagSafe(k)
		case opts.KeywordsAsWikilinks:
			out[i] = "[[" + k + "]]"
		case opts.KeywordsAsTags:
			out[i] = "#" + tagSafe(k)
		default:
			out[i] = k
		}
	}
	return out
}

func tagSafe(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

func formatDuration(totalSeconds int) string {
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
