// Package merge implements the Merge Engine (spec.md §4.3): three pure
// preparation modes (create, replace, merge) that each produce a
// NoteUpdater the executor applies under lock.
package merge

import "github.com/kohlsync/core/internal/uid"

// NoteUpdater is a pure function from the current on-disk document to the
// document that should replace it.
type NoteUpdater func(current *uid.Document) *uid.Document

// Outcome is the tagged result the engine returns for one note (spec.md
// §4.3). Kind selects which fields are meaningful: Safe and Conflicted carry
// Updater, SnapshotUsed and Diagnostics; Failed carries only Err.
type Outcome struct {
	Kind OutcomeKind

	Updater      NoteUpdater
	SnapshotUsed bool
	Diagnostics  []string
	Err          error
}

// OutcomeKind discriminates Outcome.
type OutcomeKind int

const (
	// Safe means a trusted baseline made a clean merge possible.
	Safe OutcomeKind = iota
	// Conflicted means the merge is shown to the user; intervention is
	// required before the note can be trusted again.
	Conflicted
	// Failed means the existing note's frontmatter could not be parsed; Err
	// carries the parse error and no updater is produced. A missing or
	// corrupt snapshot does not produce Failed.
	Failed
)

func safeOutcome(updater NoteUpdater) Outcome {
	return Outcome{Kind: Safe, Updater: updater, SnapshotUsed: true}
}

func conflictedOutcome(updater NoteUpdater, snapshotUsed bool, diagnostics []string) Outcome {
	return Outcome{Kind: Conflicted, Updater: updater, SnapshotUsed: snapshotUsed, Diagnostics: diagnostics}
}

func failedOutcome(err error) Outcome {
	return Outcome{Kind: Failed, Err: err}
}
