package executor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/duplicate"
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/planner"
	"github.com/kohlsync/core/internal/uid"
	"github.com/kohlsync/core/pkg/interfaces"
)

// stubRenderer renders a fixed, deterministic body so tests don't depend on
// the out-of-scope template engine (spec.md §1).
type stubRenderer struct{}

func (stubRenderer) Render(nb book.NormalizedBook, annotations []interfaces.Annotation) (string, error) {
	var lines []string
	for _, a := range annotations {
		lines = append(lines, a.Text)
	}
	return strings.Join(lines, "\n"), nil
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	dir := t.TempDir()
	fs := fsstore.NewService(fsstore.SystemPath(dir), fsstore.SystemPath(filepath.Join(dir, ".kohl")))
	uidStore := uid.NewStore(fs, fsstore.SystemPath(filepath.Join(dir, ".kohl", "snapshots")))

	db, err := index.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	idx := index.NewStore(db)

	return &Executor{
		FS:               fs,
		UIDs:             uidStore,
		Index:            idx,
		Renderer:         stubRenderer{},
		HighlightsFolder: fsstore.VaultPath("Books"),
		Workers:          2,
	}
}

func createItem(title, authors string, annotations []interfaces.Annotation) planner.PlanItem {
	nb := book.NormalizedBook{Title: title, Authors: []string{authors}}
	return planner.PlanItem{
		Kind:           planner.Create,
		Source:         planner.SourceDescriptor{SourcePath: "dev/" + title + ".sdr", Metadata: interfaces.DeviceMetadata{Annotations: annotations}},
		NormalizedBook: nb,
		BookKey:        book.ComputeKey(nb),
	}
}

func TestRunCreateWritesNoteAndRefreshesIndexAndSnapshot(t *testing.T) {
	e := newTestExecutor(t)
	item := createItem("Dune", "Frank Herbert", []interfaces.Annotation{{Page: 1, Text: "first highlight"}})

	outcome := e.Run(context.Background(), []planner.PlanItem{item})
	require.Len(t, outcome.Results, 1)
	res := outcome.Results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, Created, res.Status)
	assert.Equal(t, fsstore.VaultPath("Books/Dune - Frank Herbert.md"), res.Path)

	content, err := e.FS.ReadText(res.Path)
	require.NoError(t, err)
	assert.Contains(t, content, "first highlight")
	assert.Contains(t, content, "kohl-uid")

	paths, err := e.Index.FindPathsByKey(context.Background(), string(item.BookKey))
	require.NoError(t, err)
	assert.Equal(t, []string{string(res.Path)}, paths)

	src, found, err := e.Index.GetImportSource(context.Background(), item.Source.SourcePath)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotNil(t, src.LastSuccessTS)
}

func TestRunCreateGeneratesUniqueStemOnCollision(t *testing.T) {
	e := newTestExecutor(t)
	require.NoError(t, e.FS.WriteTextAtomic(fsstore.VaultPath("Books/Dune - Frank Herbert.md"), "pre-existing"))

	item := createItem("Dune", "Frank Herbert", nil)
	outcome := e.Run(context.Background(), []planner.PlanItem{item})
	require.Len(t, outcome.Results, 1)
	res := outcome.Results[0]
	require.NoError(t, res.Err)
	assert.NotEqual(t, fsstore.VaultPath("Books/Dune - Frank Herbert.md"), res.Path)
}

func TestRunReplaceRewritesBodyAndPreservesUID(t *testing.T) {
	e := newTestExecutor(t)
	path := fsstore.VaultPath("Books/existing.md")
	require.NoError(t, e.FS.WriteTextAtomic(path, "---\ntitle: Old Title\n---\nold body"))
	existingUID, err := e.UIDs.EnsureUID(path)
	require.NoError(t, err)

	nb := book.NormalizedBook{Title: "Dune", Authors: []string{"Frank Herbert"}}
	item := planner.PlanItem{
		Kind:           planner.Replace,
		Source:         planner.SourceDescriptor{SourcePath: "dev/a.sdr", Metadata: interfaces.DeviceMetadata{Annotations: []interfaces.Annotation{{Page: 1, Text: "new highlight"}}}},
		NormalizedBook: nb,
		BookKey:        book.ComputeKey(nb),
		Candidate:      &duplicate.Candidate{Path: path, UID: existingUID},
	}

	outcome := e.Run(context.Background(), []planner.PlanItem{item})
	res := outcome.Results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, Replaced, res.Status)

	content, err := e.FS.ReadText(path)
	require.NoError(t, err)
	assert.Contains(t, content, "new highlight")
	assert.Contains(t, content, existingUID)
	assert.NotContains(t, content, "old body")
}

func TestRunMergeRecordsUnchangedOnceTheLastMergedStampSettles(t *testing.T) {
	e := newTestExecutor(t)
	fixedNow := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return fixedNow }

	nb := book.NormalizedBook{Title: "Dune", Authors: []string{"Frank Herbert"}}
	annotations := []interfaces.Annotation{{Page: 1, Text: "highlight"}}

	createOutcome := e.Run(context.Background(), []planner.PlanItem{{
		Kind:           planner.Create,
		Source:         planner.SourceDescriptor{SourcePath: "dev/a.sdr", Metadata: interfaces.DeviceMetadata{Annotations: annotations}},
		NormalizedBook: nb,
		BookKey:        book.ComputeKey(nb),
	}})
	created := createOutcome.Results[0]
	require.NoError(t, created.Err)
	path := created.Path

	content, err := e.FS.ReadText(path)
	require.NoError(t, err)
	noteUID, ok := uid.TryGetUID([]byte(content))
	require.True(t, ok)

	mergeItem := planner.PlanItem{
		Kind:           planner.Merge,
		Source:         planner.SourceDescriptor{SourcePath: "dev/a.sdr", Metadata: interfaces.DeviceMetadata{Annotations: annotations}},
		NormalizedBook: nb,
		BookKey:        book.ComputeKey(nb),
		Candidate:      &duplicate.Candidate{Path: path, UID: noteUID},
	}

	// The first merge after create stamps last-merged, which changes the
	// content even though the highlights themselves didn't.
	first := e.Run(context.Background(), []planner.PlanItem{mergeItem})
	require.NoError(t, first.Results[0].Err)
	assert.Equal(t, Merged, first.Results[0].Status)

	// A second merge on the same day reproduces byte-identical content.
	second := e.Run(context.Background(), []planner.PlanItem{mergeItem})
	res := second.Results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, Unchanged, res.Status)
}

func TestRunSkipAndManualDuplicateDoNotTouchFilesystem(t *testing.T) {
	e := newTestExecutor(t)
	nb := book.NormalizedBook{Title: "Dune"}
	items := []planner.PlanItem{
		{Kind: planner.Skip, NormalizedBook: nb, BookKey: book.ComputeKey(nb)},
		{Kind: planner.ManualDuplicate, NormalizedBook: nb, BookKey: book.ComputeKey(nb), Candidates: []duplicate.Candidate{{Path: "Books/a.md"}, {Path: "Books/b.md"}}},
	}

	outcome := e.Run(context.Background(), items)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, Skipped, outcome.Results[0].Status)
	assert.Equal(t, ManualDuplicate, outcome.Results[1].Status)

	listing, err := e.FS.ListFiles(context.Background(), e.HighlightsFolder, fsstore.ListOptions{Recursive: true})
	require.NoError(t, err)
	assert.Empty(t, listing.Files)
}

func TestRunHonorsCancellationForPendingItems(t *testing.T) {
	e := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item := createItem("Dune", "Frank Herbert", nil)
	outcome := e.Run(ctx, []planner.PlanItem{item})
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, Failed, outcome.Results[0].Status)
	assert.Error(t, outcome.Results[0].Err)
}
