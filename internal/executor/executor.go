// Package executor implements the Import Executor (spec.md §4.6): applying
// an ordered list of plan items to the vault under per-book locks, with
// atomic writes, snapshot refresh, and index updates.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/merge"
	"github.com/kohlsync/core/internal/pathutil"
	"github.com/kohlsync/core/internal/planner"
	"github.com/kohlsync/core/internal/uid"
)

// Executor applies PlanItems to the vault (spec.md §4.6, §5). Zero values
// for Workers and Now are replaced with defaults on first use.
type Executor struct {
	FS               *fsstore.Service
	UIDs             *uid.Store
	Index            *index.Store
	Renderer         BodyRenderer
	FormatOpts       book.FormatOptions
	HighlightsFolder fsstore.VaultPath

	BackupDir         fsstore.SystemPath
	MaxBackupsPerNote int
	EmptyIncomingRule merge.EmptyIncomingRule

	Workers int
	Now     func() time.Time

	once  sync.Once
	locks *keyedMutex
}

func (e *Executor) init() {
	e.once.Do(func() {
		e.locks = newKeyedMutex()
		if e.Now == nil {
			e.Now = time.Now
		}
		if e.Workers <= 0 {
			e.Workers = 4
		}
	})
}

// Run applies every item and returns one Result per item, in input order.
// Concurrency is a bounded worker pool draining a jobs channel, the same
// shape as the teacher generator service's renderConcurrently: N goroutines
// range over a channel and check ctx.Done() per item rather than assuming
// the whole batch succeeds or aborts atomically (spec.md §5 cancellation:
// "already-written items remain persisted").
func (e *Executor) Run(ctx context.Context, items []planner.PlanItem) BatchOutcome {
	e.init()
	handler := NewApplyItemHandler(e)

	results := make([]Result, len(items))
	type job struct {
		idx  int
		item planner.PlanItem
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < e.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					results[j.idx] = Result{Item: j.item, Status: Failed, Err: ctx.Err()}
				default:
					var res Result
					if err := handler.Execute(ctx, ApplyItemCommand{Item: j.item, Out: &res}); err != nil && res.Status == "" {
						res = Result{Item: j.item, Status: Failed, Err: err}
					}
					results[j.idx] = res
				}
			}
		}()
	}

feedLoop:
	for i, item := range items {
		select {
		case <-ctx.Done():
			for j := i; j < len(items); j++ {
				results[j] = Result{Item: items[j], Status: Failed, Err: ctx.Err()}
			}
			break feedLoop
		case jobs <- job{idx: i, item: item}:
		}
	}
	close(jobs)
	wg.Wait()

	return BatchOutcome{Results: results}
}

func (e *Executor) applyOne(ctx context.Context, item planner.PlanItem) Result {
	switch item.Kind {
	case planner.Skip:
		return Result{Item: item, Status: Skipped}
	case planner.ManualDuplicate:
		return Result{Item: item, Status: ManualDuplicate}
	}

	unlock := e.locks.Lock(lockKey(item))
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Result{Item: item, Status: Failed, Err: err}
	}

	switch item.Kind {
	case planner.Create:
		return e.applyCreate(ctx, item)
	case planner.Replace:
		return e.applyExisting(ctx, item, Replaced)
	case planner.Merge:
		return e.applyExisting(ctx, item, Merged)
	default:
		return Result{Item: item, Status: Failed, Err: fmt.Errorf("executor: unhandled plan item kind %q", item.Kind)}
	}
}

func lockKey(item planner.PlanItem) string {
	if item.Candidate != nil && item.Candidate.UID != "" {
		return "uid:" + item.Candidate.UID
	}
	return "key:" + string(item.BookKey)
}

func (e *Executor) applyCreate(ctx context.Context, item planner.PlanItem) Result {
	body, err := e.Renderer.Render(item.NormalizedBook, item.Source.Metadata.Annotations)
	if err != nil {
		return Result{Item: item, Status: Failed, Err: errkind.New(errkind.DbOperationFailed, "render device content", err)}
	}

	path := e.resolveCreatePath(item.NormalizedBook)

	newUID := uuid.New().String()
	outcome := merge.PrepareCreate(item.NormalizedBook, e.FormatOpts, body, newUID)
	if outcome.Kind == merge.Failed {
		return Result{Item: item, Status: Failed, Path: path, Err: outcome.Err}
	}

	doc := outcome.Updater(nil)
	rendered := string(uid.Encode(doc))

	if err := e.FS.WriteTextAtomic(path, rendered); err != nil {
		return Result{Item: item, Status: Failed, Path: path, Err: err}
	}

	res := Result{Item: item, Path: path, Status: Created}
	e.finalize(ctx, &res, newUID, string(doc.Body))
	return res
}

// applyExisting implements Replace and Merge (spec.md §4.6 steps 2-8); they
// differ only in whether the three-way merge or the unconditional rewrite
// prepares the new content.
func (e *Executor) applyExisting(ctx context.Context, item planner.PlanItem, status Status) Result {
	path := item.Candidate.Path
	noteUID := item.Candidate.UID

	currentContent, err := e.FS.ReadText(path)
	if err != nil {
		return Result{Item: item, Status: Failed, Path: path, Err: err}
	}
	existingDoc, parseErr := uid.ParseDocument([]byte(currentContent))

	body, err := e.Renderer.Render(item.NormalizedBook, item.Source.Metadata.Annotations)
	if err != nil {
		return Result{Item: item, Status: Failed, Path: path, Err: errkind.New(errkind.DbOperationFailed, "render device content", err)}
	}

	var outcome merge.Outcome
	if status == Replaced {
		if parseErr != nil {
			return Result{Item: item, Status: Failed, Path: path, Err: parseErr}
		}
		outcome = merge.PrepareReplace(existingDoc, item.NormalizedBook, e.FormatOpts, body, noteUID)
	} else {
		snap, snapErr := e.UIDs.ReadSnapshot(noteUID)
		snapshotTrusted := snapErr == nil
		var snapshotBody string
		if snapshotTrusted {
			snapshotBody = snap.Body
		}
		outcome = merge.PrepareMerge(merge.MergeParams{
			Existing:          existingDoc,
			ExistingParseErr:  parseErr,
			CurrentBody:       currentBody(existingDoc),
			SnapshotBody:      snapshotBody,
			SnapshotTrusted:   snapshotTrusted,
			Incoming:          item.NormalizedBook,
			IncomingBody:      body,
			FormatOpts:        e.FormatOpts,
			PreservedUID:      noteUID,
			Now:               e.Now(),
			EmptyIncomingRule: e.EmptyIncomingRule,
		})
	}

	if outcome.Kind == merge.Failed {
		return Result{Item: item, Status: Failed, Path: path, Err: outcome.Err}
	}

	doc := outcome.Updater(existingDoc)
	rendered := string(uid.Encode(doc))

	res := Result{Item: item, Path: path, Status: status, Diagnostics: outcome.Diagnostics}
	if rendered == currentContent {
		res.Status = Unchanged
		e.finalize(ctx, &res, noteUID, string(doc.Body))
		return res
	}

	if e.MaxBackupsPerNote > 0 && e.BackupDir != "" {
		if err := e.FS.WriteBackup(e.BackupDir, path, currentContent, e.Now(), e.MaxBackupsPerNote); err != nil {
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("backup write failed: %v", err))
		}
	}

	if err := e.FS.WriteTextAtomic(path, rendered); err != nil {
		return Result{Item: item, Status: Failed, Path: path, Err: err}
	}

	e.finalize(ctx, &res, noteUID, string(doc.Body))
	return res
}

func currentBody(doc *uid.Document) string {
	if doc == nil {
		return ""
	}
	return string(doc.Body)
}

// finalize refreshes the snapshot and index after a successful write (spec.md
// §4.6 steps 7-8). Failures here are non-fatal: the note content is already
// safely on disk, so they're recorded as diagnostics rather than turning the
// whole item into a Failed result.
func (e *Executor) finalize(ctx context.Context, res *Result, noteUID string, body string) {
	now := e.Now()

	if err := e.UIDs.WriteSnapshotFull(noteUID, res.Path, body, res.Item.Source.Metadata.Annotations, now); err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("snapshot refresh failed: %v", err))
	}

	bookRow := index.BookRow{
		Key:     string(res.Item.BookKey),
		Title:   res.Item.NormalizedBook.Title,
		Authors: strings.Join(res.Item.NormalizedBook.Authors, ", "),
	}
	if md5 := res.Item.Source.Metadata.MD5; md5 != "" {
		bookRow.DeviceID = &md5
	}
	if err := e.Index.UpsertBook(ctx, bookRow, string(res.Path)); err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("index upsert_book failed: %v", err))
		return
	}

	importSource := index.ImportSource{
		SourcePath:         res.Item.Source.SourcePath,
		LastProcessedMtime: res.Item.Source.MtimeUnix,
		LastProcessedSize:  res.Item.Source.Size,
		LastSuccessTS:      &now,
	}
	key := string(res.Item.BookKey)
	importSource.BookKey = &key
	if ts := res.Item.Source.NewestAnnotationTS; ts != 0 {
		importSource.NewestAnnotationTS = &ts
	}
	if err := e.Index.UpsertImportSource(ctx, importSource); err != nil {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("index upsert_import_source failed: %v", err))
	}
}

// resolveCreatePath picks a filesystem-safe, collision-free path under
// HighlightsFolder for a brand-new note (spec.md §4.8).
func (e *Executor) resolveCreatePath(nb book.NormalizedBook) fsstore.VaultPath {
	desired := nb.Title
	if len(nb.Authors) > 0 {
		desired = nb.Title + " - " + strings.Join(nb.Authors, ", ")
	}
	safe := pathutil.ToFileSafe(desired, pathutil.FileSafeOptions{})

	folder := string(e.HighlightsFolder)
	result := pathutil.GenerateUniqueStem(safe, func(candidateStem string) bool {
		candidate := fsstore.VaultPath(folder + "/" + candidateStem + ".md")
		return e.FS.Exists(candidate)
	}, pathutil.UniqueStemOptions{
		Extension:     ".md",
		FolderPathLen: len(folder) + 1,
	})

	return fsstore.VaultPath(folder + "/" + result.Stem + ".md")
}
