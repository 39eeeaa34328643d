package book

import (
	"html"
	"regexp"
	"strings"

	"github.com/kohlsync/core/pkg/interfaces"
)

var (
	listSplitRe  = regexp.MustCompile(`[,;&\n\r]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var titlePlaceholders = map[string]bool{
	"unknown": true,
	"n/a":     true,
	"na":      true,
}

// Normalize reduces device metadata and optional statistics into a
// NormalizedBook (spec.md §4.2 stage 1).
func Normalize(meta interfaces.DeviceMetadata, stats *interfaces.BookStatistics) NormalizedBook {
	nb := NormalizedBook{
		Title:       normalizeTitle(meta.DocProps.Title),
		Authors:     splitList(meta.DocProps.Authors),
		Description: strings.TrimSpace(meta.DocProps.Description),
		Keywords:    splitList(meta.DocProps.Keywords),
		Series:      strings.TrimSpace(meta.DocProps.Series),
		Language:    strings.TrimSpace(meta.DocProps.Language),
		Pages:       meta.Pages,
	}
	if meta.DocProps.Rating != 0 {
		r := meta.DocProps.Rating
		nb.Rating = &r
	}

	applyStatistics(&nb, stats)
	if nb.ReadingStatus == "" {
		// No statistics database hit (or it had no usable status): fall back
		// to the device's own declarative status (spec.md §4.2 stage 1).
		nb.ReadingStatus = mapDeviceStatus(meta.Status)
	}
	applyDeviceStatusOverride(&nb, meta)
	applyAnnotationCounts(&nb, meta, stats)

	return nb
}

func normalizeTitle(raw string) string {
	s := html.UnescapeString(raw)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”‘’[](){}`)
	s = strings.TrimSpace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return s
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := listSplitRe.Split(raw, -1)
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || titlePlaceholders[strings.ToLower(p)] {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// mapDeviceStatus normalizes freeform statistics-database status strings
// into the ReadingStatus rank (spec.md §4.2).
func mapDeviceStatus(raw string) ReadingStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed", "finished":
		return StatusCompleted
	case "abandoned", "dropped", "on hold", "onhold":
		return StatusAbandoned
	case "reading", "ongoing", "in progress", "inprogress":
		return StatusOngoing
	case "unread", "unstarted", "new":
		return StatusUnstarted
	default:
		return ""
	}
}

// applyStatistics fills progress fields from the statistics database, which
// wins over the device's declarative fallback (spec.md §4.2 stage 1).
func applyStatistics(nb *NormalizedBook, stats *interfaces.BookStatistics) {
	if stats == nil {
		return
	}
	if mapped := mapDeviceStatus(stats.Status); mapped != "" {
		nb.ReadingStatus = mapped
	}
	if stats.Progress > 0 {
		p := stats.Progress
		nb.ProgressPercent = &p
	}
	if stats.TotalReadSeconds > 0 {
		secs := int(stats.TotalReadSeconds)
		nb.ReadTimeSeconds = &secs
	}
	if !stats.FirstRead.IsZero() {
		t := stats.FirstRead
		nb.FirstRead = &t
	}
	if !stats.LastRead.IsZero() {
		t := stats.LastRead
		nb.LastRead = &t
	}
	if stats.AverageTimePerPage > 0 {
		v := stats.AverageTimePerPage.Seconds()
		nb.AverageTimePerPage = &v
	}
	if len(stats.Sessions) > 0 {
		count := len(stats.Sessions)
		nb.SessionCount = &count
		nb.AvgSessionDuration = avgSessionSeconds(stats.Sessions)
		streak := distinctDayStreak(stats.Sessions)
		nb.ReadingStreak = &streak
	}
}

func avgSessionSeconds(sessions []interfaces.ReadingSession) *int {
	if len(sessions) == 0 {
		return nil
	}
	var total int64
	for _, s := range sessions {
		total += s.DurationSeconds
	}
	avg := int(total / int64(len(sessions)))
	return &avg
}

// distinctDayStreak counts the distinct calendar days (UTC) a session
// occurred on, a simple, deterministic proxy for "reading streak" that
// doesn't require assuming consecutive-day semantics from sparse data.
func distinctDayStreak(sessions []interfaces.ReadingSession) int {
	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[s.StartTime.UTC().Format("2006-01-02")] = true
	}
	return len(days)
}

// applyDeviceStatusOverride applies the Lua-fallback override: an explicit
// "complete" declarative status always upgrades to completed/100%, even if
// the statistics database disagrees (spec.md §4.2 stage 1).
func applyDeviceStatusOverride(nb *NormalizedBook, meta interfaces.DeviceMetadata) {
	if mapDeviceStatus(meta.Status) != StatusCompleted {
		return
	}
	nb.ReadingStatus = StatusCompleted
	full := 100
	nb.ProgressPercent = &full
}

func applyAnnotationCounts(nb *NormalizedBook, meta interfaces.DeviceMetadata, stats *interfaces.BookStatistics) {
	if stats != nil {
		if stats.HighlightCount > 0 {
			h := stats.HighlightCount
			nb.HighlightCount = &h
		}
		if stats.NoteCount > 0 {
			n := stats.NoteCount
			nb.NoteCount = &n
		}
		return
	}
	var highlights, notes int
	for _, a := range meta.Annotations {
		if strings.TrimSpace(a.Note) != "" {
			notes++
		} else {
			highlights++
		}
	}
	if highlights > 0 {
		nb.HighlightCount = &highlights
	}
	if notes > 0 {
		nb.NoteCount = &notes
	}
}
