package book

import "time"

// Merge combines base (frontmatter-derived) and incoming (device-derived)
// NormalizedBook values under the field-level policies of spec.md §4.2
// stage 2: bibliographic fields preserve-if-missing, progress fields are
// high-water-mark, lastRead takes the latest and firstRead the earliest
// timestamp, and status never regresses.
func Merge(base, incoming NormalizedBook) NormalizedBook {
	out := NormalizedBook{
		Title:       preferNonEmptyString(incoming.Title, base.Title),
		Authors:     preferNonEmptyList(incoming.Authors, base.Authors),
		Description: preferNonEmptyString(incoming.Description, base.Description),
		Keywords:    preferNonEmptyList(incoming.Keywords, base.Keywords),
		Series:      preferNonEmptyString(incoming.Series, base.Series),
		Language:    preferNonEmptyString(incoming.Language, base.Language),
		Pages:       preferNonZeroInt(incoming.Pages, base.Pages),
		Rating:      preferNonNilFloat(incoming.Rating, base.Rating),
	}

	out.ReadingStatus = mergeStatus(base.ReadingStatus, incoming.ReadingStatus)
	out.ProgressPercent = maxIntPtr(base.ProgressPercent, incoming.ProgressPercent)
	out.ReadTimeSeconds = maxIntPtr(base.ReadTimeSeconds, incoming.ReadTimeSeconds)
	out.SessionCount = maxIntPtr(base.SessionCount, incoming.SessionCount)

	out.FirstRead = minTimePtr(base.FirstRead, incoming.FirstRead)
	out.LastRead = maxTimePtr(base.LastRead, incoming.LastRead)

	out.ReadingStreak = preferNonNilInt(incoming.ReadingStreak, base.ReadingStreak)
	out.AverageTimePerPage = preferNonNilFloat(incoming.AverageTimePerPage, base.AverageTimePerPage)
	out.AvgSessionDuration = preferNonNilInt(incoming.AvgSessionDuration, base.AvgSessionDuration)
	out.HighlightCount = preferNonNilInt(incoming.HighlightCount, base.HighlightCount)
	out.NoteCount = preferNonNilInt(incoming.NoteCount, base.NoteCount)

	return out
}

// mergeStatus enforces the rank invariant: the merged status is never lower
// ranked than base (spec.md §8 invariant 5).
func mergeStatus(base, incoming ReadingStatus) ReadingStatus {
	if incoming.rank() >= base.rank() {
		if incoming != "" {
			return incoming
		}
		return base
	}
	return base
}

func preferNonEmptyString(incoming, base string) string {
	if incoming != "" {
		return incoming
	}
	return base
}

func preferNonEmptyList(incoming, base []string) []string {
	if len(incoming) > 0 {
		return incoming
	}
	return base
}

func preferNonZeroInt(incoming, base int) int {
	if incoming != 0 {
		return incoming
	}
	return base
}

func preferNonNilFloat(incoming, base *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return base
}

func preferNonNilInt(incoming, base *int) *int {
	if incoming != nil {
		return incoming
	}
	return base
}

func maxIntPtr(base, incoming *int) *int {
	switch {
	case base == nil:
		return incoming
	case incoming == nil:
		return base
	case *incoming > *base:
		return incoming
	default:
		return base
	}
}

// minTimePtr keeps the earliest non-nil value; used for firstRead, which
// "never disappears" once set (spec.md §4.2 stage 2).
func minTimePtr(base, incoming *time.Time) *time.Time {
	switch {
	case base == nil:
		return incoming
	case incoming == nil:
		return base
	case incoming.Before(*base):
		return incoming
	default:
		return base
	}
}

// maxTimePtr keeps the latest non-nil value; used for lastRead.
func maxTimePtr(base, incoming *time.Time) *time.Time {
	switch {
	case base == nil:
		return incoming
	case incoming == nil:
		return base
	case incoming.After(*base):
		return incoming
	default:
		return base
	}
}
