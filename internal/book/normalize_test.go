package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kohlsync/core/pkg/interfaces"
)

func TestNormalizeSplitsAndDedupesAuthors(t *testing.T) {
	meta := interfaces.DeviceMetadata{
		DocProps: interfaces.DocProps{
			Title:   "  \"The Go Programming Language\"  ",
			Authors: "Alan Donovan, Brian Kernighan; Alan Donovan",
		},
	}
	nb := Normalize(meta, nil)
	assert.Equal(t, "The Go Programming Language", nb.Title)
	assert.Equal(t, []string{"Alan Donovan", "Brian Kernighan"}, nb.Authors)
}

func TestNormalizeDropsPlaceholderAuthors(t *testing.T) {
	meta := interfaces.DeviceMetadata{DocProps: interfaces.DocProps{Authors: "Unknown, N/A, Real Name"}}
	nb := Normalize(meta, nil)
	assert.Equal(t, []string{"Real Name"}, nb.Authors)
}

func TestNormalizeStatisticsWaterfallWinsOverDeviceStatus(t *testing.T) {
	meta := interfaces.DeviceMetadata{Status: "reading"}
	stats := &interfaces.BookStatistics{Status: "abandoned", Progress: 40}
	nb := Normalize(meta, stats)
	assert.Equal(t, StatusAbandoned, nb.ReadingStatus)
	assert.Equal(t, 40, *nb.ProgressPercent)
}

func TestNormalizeDeviceCompleteOverridesStatistics(t *testing.T) {
	meta := interfaces.DeviceMetadata{Status: "complete"}
	stats := &interfaces.BookStatistics{Status: "reading", Progress: 40}
	nb := Normalize(meta, stats)
	assert.Equal(t, StatusCompleted, nb.ReadingStatus)
	assert.Equal(t, 100, *nb.ProgressPercent)
}

func TestNormalizeAnnotationCountsFallBackWhenNoStatistics(t *testing.T) {
	meta := interfaces.DeviceMetadata{
		Annotations: []interfaces.Annotation{
			{Text: "quote one"},
			{Text: "quote two", Note: "my thought"},
		},
	}
	nb := Normalize(meta, nil)
	assert.Equal(t, 1, *nb.HighlightCount)
	assert.Equal(t, 1, *nb.NoteCount)
}

func TestDistinctDayStreakCountsUniqueDays(t *testing.T) {
	sessions := []interfaces.ReadingSession{
		{StartTime: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)},
	}
	assert.Equal(t, 2, distinctDayStreak(sessions))
}
