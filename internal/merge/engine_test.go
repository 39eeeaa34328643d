package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/uid"
)

func TestPrepareCreateRendersDeviceContentAndUID(t *testing.T) {
	nb := book.NormalizedBook{Title: "New Book"}
	outcome := PrepareCreate(nb, book.FormatOptions{}, "body text", "uid-1")

	require.Equal(t, Safe, outcome.Kind)
	doc := outcome.Updater(nil)
	assert.Equal(t, "uid-1", doc.Value[uid.ReservedUIDKey])
	assert.Equal(t, "body text", string(doc.Body))
}

func TestPrepareReplacePreservesUIDAndMergesFrontmatter(t *testing.T) {
	existing := &uid.Document{Value: map[string]any{"title": "Old Title", "rating": 4.0}, Order: []string{"title", "rating"}}
	incoming := book.NormalizedBook{Title: "", Rating: nil}

	outcome := PrepareReplace(existing, incoming, book.FormatOptions{}, "fresh body", "uid-2")
	require.Equal(t, Safe, outcome.Kind)

	doc := outcome.Updater(nil)
	assert.Equal(t, "uid-2", doc.Value[uid.ReservedUIDKey])
	assert.Equal(t, "Old Title", doc.Value["title"])
	assert.Equal(t, "fresh body", string(doc.Body))
}

func TestPrepareMergeCleanWhenSnapshotTrustedAndNoConflict(t *testing.T) {
	existing := &uid.Document{Value: map[string]any{"title": "T"}, Order: []string{"title"}}
	outcome := PrepareMerge(MergeParams{
		Existing:        existing,
		CurrentBody:     "line one\nline two",
		SnapshotBody:    "line one\nline two",
		SnapshotTrusted: true,
		Incoming:        book.NormalizedBook{Title: "T"},
		IncomingBody:    "line one\nline two",
		PreservedUID:    "uid-3",
		Now:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	require.Equal(t, Safe, outcome.Kind)
	doc := outcome.Updater(nil)
	_, hasConflictFlag := doc.Get("conflicts")
	assert.False(t, hasConflictFlag)
}

func TestPrepareMergeConflictedWhenSnapshotUntrusted(t *testing.T) {
	existing := &uid.Document{Value: map[string]any{}, Order: nil}
	outcome := PrepareMerge(MergeParams{
		Existing:        existing,
		CurrentBody:     "current content",
		SnapshotTrusted: false,
		Incoming:        book.NormalizedBook{Title: "T"},
		IncomingBody:    "incoming content",
		PreservedUID:    "uid-4",
		Now:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	require.Equal(t, Conflicted, outcome.Kind)
	doc := outcome.Updater(nil)
	flag, ok := doc.Get("conflicts")
	assert.True(t, ok)
	assert.Equal(t, "unresolved", flag)
}

func TestPrepareMergeForcesConflictOnEmptyIncomingStrictRule(t *testing.T) {
	existing := &uid.Document{Value: map[string]any{}}
	outcome := PrepareMerge(MergeParams{
		Existing:          existing,
		CurrentBody:       "a much longer current body than the baseline",
		SnapshotBody:      "short",
		SnapshotTrusted:   true,
		Incoming:          book.NormalizedBook{},
		IncomingBody:      "",
		PreservedUID:      "uid-5",
		Now:               time.Now(),
		EmptyIncomingRule: RuleStrict,
	})

	require.Equal(t, Conflicted, outcome.Kind)
	doc := outcome.Updater(nil)
	assert.Contains(t, string(doc.Body), "[!warning]")
}

func TestPrepareMergeReturnsFailedOnExistingParseError(t *testing.T) {
	wantErr := assert.AnError
	outcome := PrepareMerge(MergeParams{ExistingParseErr: wantErr})
	assert.Equal(t, Failed, outcome.Kind)
	assert.Equal(t, wantErr, outcome.Err)
}
