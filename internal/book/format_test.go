package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFixedKeyOrder(t *testing.T) {
	progress := 42
	nb := NormalizedBook{
		Title:           "A Book",
		Authors:         []string{"Jane Doe"},
		ReadingStatus:   StatusOngoing,
		ProgressPercent: &progress,
	}
	doc := Format(nb, FormatOptions{})

	idxTitle := indexOfOrder(doc.Order, "title")
	idxAuthors := indexOfOrder(doc.Order, "authors")
	idxStatus := indexOfOrder(doc.Order, "readingStatus")
	idxProgress := indexOfOrder(doc.Order, "progress")

	require.True(t, idxTitle >= 0 && idxAuthors >= 0 && idxStatus >= 0 && idxProgress >= 0)
	assert.True(t, idxTitle < idxAuthors)
	assert.True(t, idxStatus < idxProgress)
}

func TestFormatHidesProgressWhenCompleted(t *testing.T) {
	full := 100
	nb := NormalizedBook{Title: "Done", ReadingStatus: StatusCompleted, ProgressPercent: &full}
	doc := Format(nb, FormatOptions{})

	assert.Equal(t, -1, indexOfOrder(doc.Order, "progress"))
}

func TestFormatHidesSessionCountAlways(t *testing.T) {
	nb := NormalizedBook{Title: "X"}
	doc := Format(nb, FormatOptions{})
	assert.Equal(t, -1, indexOfOrder(doc.Order, "sessionCount"))
}

func TestFormatShowsStreakOnlyWhileOngoing(t *testing.T) {
	streak := 3
	ongoing := NormalizedBook{Title: "X", ReadingStatus: StatusOngoing, ReadingStreak: &streak}
	completed := NormalizedBook{Title: "X", ReadingStatus: StatusCompleted, ReadingStreak: &streak}

	assert.True(t, indexOfOrder(Format(ongoing, FormatOptions{}).Order, "readingStreak") >= 0)
	assert.Equal(t, -1, indexOfOrder(Format(completed, FormatOptions{}).Order, "readingStreak"))
}

func TestFormatAuthorsAsWikilinks(t *testing.T) {
	nb := NormalizedBook{Title: "X", Authors: []string{"Jane Doe"}}
	doc := Format(nb, FormatOptions{})
	assert.Equal(t, []string{"[[Jane Doe]]"}, doc.Value["authors"])
}

func TestFormatDatesAsISO(t *testing.T) {
	first := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	nb := NormalizedBook{Title: "X", FirstRead: &first}
	doc := Format(nb, FormatOptions{})
	assert.Equal(t, "2026-03-04", doc.Value["firstRead"])
}

func TestFormatDurationFormatting(t *testing.T) {
	assert.Equal(t, "1h 1m 1s", formatDuration(3661))
	assert.Equal(t, "2m 5s", formatDuration(125))
	assert.Equal(t, "9s", formatDuration(9))
}

func indexOfOrder(order []string, key string) int {
	for i, k := range order {
		if k == key {
			return i
		}
	}
	return -1
}
