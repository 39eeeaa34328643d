package book

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kohlsync/core/internal/uid"
)

// ParseFrontmatter reconstructs a NormalizedBook from a previously formatted
// Document, inverting Format. It is used as the "base" side of a merge
// (spec.md §4.3: "base=frontmatter-derived"), since the merge engine treats
// whatever is already on disk as one input and the freshly normalized
// device record as the other.
func ParseFrontmatter(doc *uid.Document) NormalizedBook {
	var nb NormalizedBook
	if doc == nil {
		return nb
	}

	if v, ok := doc.Get("title"); ok {
		nb.Title, _ = v.(string)
	}
	if v, ok := doc.Get("authors"); ok {
		nb.Authors = stripWikilinks(toStringSlice(v))
	}
	if v, ok := doc.Get("description"); ok {
		nb.Description, _ = v.(string)
	}
	if v, ok := doc.Get("keywords"); ok {
		nb.Keywords = stripDecorations(toStringSlice(v))
	}
	if v, ok := doc.Get("series"); ok {
		nb.Series, _ = v.(string)
	}
	if v, ok := doc.Get("language"); ok {
		nb.Language, _ = v.(string)
	}
	if v, ok := doc.Get("pages"); ok {
		nb.Pages = toInt(v)
	}
	if v, ok := doc.Get("rating"); ok {
		f := toFloat(v)
		nb.Rating = &f
	}
	if v, ok := doc.Get("readingStatus"); ok {
		if s, ok := v.(string); ok {
			nb.ReadingStatus = ReadingStatus(s)
		}
	}
	if v, ok := doc.Get("progress"); ok {
		if p, ok := parsePercent(fmt.Sprint(v)); ok {
			nb.ProgressPercent = &p
		}
	}
	if v, ok := doc.Get("readingStreak"); ok {
		n := toInt(v)
		nb.ReadingStreak = &n
	}
	if v, ok := doc.Get("firstRead"); ok {
		if t, ok := parseISODate(fmt.Sprint(v)); ok {
			nb.FirstRead = &t
		}
	}
	if v, ok := doc.Get("lastRead"); ok {
		if t, ok := parseISODate(fmt.Sprint(v)); ok {
			nb.LastRead = &t
		}
	}
	if v, ok := doc.Get("readTime"); ok {
		if s, ok := parseDurationToSeconds(fmt.Sprint(v)); ok {
			nb.ReadTimeSeconds = &s
		}
	}
	if v, ok := doc.Get("averageTimePerPage"); ok {
		if s, ok := parseDurationToSeconds(fmt.Sprint(v)); ok {
			f := float64(s)
			nb.AverageTimePerPage = &f
		}
	}
	if v, ok := doc.Get("avgSessionDuration"); ok {
		if s, ok := parseDurationToSeconds(fmt.Sprint(v)); ok {
			nb.AvgSessionDuration = &s
		}
	}
	if v, ok := doc.Get("highlightCount"); ok {
		n := toInt(v)
		nb.HighlightCount = &n
	}
	if v, ok := doc.Get("noteCount"); ok {
		n := toInt(v)
		nb.NoteCount = &n
	}

	return nb
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func stripWikilinks(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		v = strings.TrimPrefix(v, "[[")
		v = strings.TrimSuffix(v, "]]")
		out[i] = v
	}
	return out
}

func stripDecorations(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if idx := strings.Index(v, "]] #"); idx >= 0 {
			v = v[:idx+2]
		}
		switch {
		case strings.HasPrefix(v, "[[") && strings.HasSuffix(v, "]]"):
			v = strings.TrimSuffix(strings.TrimPrefix(v, "[["), "]]")
		case strings.HasPrefix(v, "#"):
			v = strings.TrimPrefix(v, "#")
			v = strings.ReplaceAll(v, "-", " ")
		}
		out[i] = v
	}
	return out
}

func toInt(v any) int {
	switch vv := v.(type) {
	case int:
		return vv
	case float64:
		return int(vv)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(vv))
		return n
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch vv := v.(type) {
	case float64:
		return vv
	case int:
		return float64(vv)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		return f
	default:
		return 0
	}
}

func parsePercent(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseDurationToSeconds inverts formatDuration's "Hh Mm Ss" rendering.
func parseDurationToSeconds(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	fields := strings.Fields(s)
	total := 0
	matched := false
	for _, f := range fields {
		switch {
		case strings.HasSuffix(f, "h"):
			n, err := strconv.Atoi(strings.TrimSuffix(f, "h"))
			if err != nil {
				return 0, false
			}
			total += n * 3600
			matched = true
		case strings.HasSuffix(f, "m"):
			n, err := strconv.Atoi(strings.TrimSuffix(f, "m"))
			if err != nil {
				return 0, false
			}
			total += n * 60
			matched = true
		case strings.HasSuffix(f, "s"):
			n, err := strconv.Atoi(strings.TrimSuffix(f, "s"))
			if err != nil {
				return 0, false
			}
			total += n
			matched = true
		default:
			return 0, false
		}
	}
	return total, matched
}
