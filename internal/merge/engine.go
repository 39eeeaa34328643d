package merge

import (
	"strings"
	"time"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/uid"
)

// EmptyIncomingRule selects the variant of the "force conflict on empty
// re-import" rule (spec.md §9 Open Question, resolved in SPEC_FULL.md).
type EmptyIncomingRule string

const (
	RuleStrict           EmptyIncomingRule = "strict"
	RuleAnyNonWhitespace EmptyIncomingRule = "any-nonwhitespace"
)

// PrepareCreate builds the updater for a brand-new note: frontmatter is
// Normalize∘Format of incoming, body is the rendered device content
// (spec.md §4.3).
func PrepareCreate(incoming book.NormalizedBook, opts book.FormatOptions, renderedBody string, newUID string) Outcome {
	doc := book.Format(incoming, opts)
	doc.Set(uid.ReservedUIDKey, newUID)
	doc.Body = []byte(renderedBody)
	return safeOutcome(func(*uid.Document) *uid.Document { return doc })
}

// PrepareReplace builds the updater for an existing note being fully
// re-rendered: frontmatter merges base (frontmatter-derived) with incoming,
// body is unconditionally the rendered device content, and the existing UID
// is preserved (spec.md §4.3).
func PrepareReplace(existing *uid.Document, incoming book.NormalizedBook, opts book.FormatOptions, renderedBody string, preservedUID string) Outcome {
	base := book.ParseFrontmatter(existing)
	merged := book.Merge(base, incoming)
	doc := book.Format(merged, opts)
	doc.Set(uid.ReservedUIDKey, preservedUID)
	doc.Body = []byte(renderedBody)
	return safeOutcome(func(*uid.Document) *uid.Document { return doc })
}

// MergeParams bundles PrepareMerge's inputs (spec.md §4.3 three-way mode).
type MergeParams struct {
	Existing          *uid.Document
	ExistingParseErr  error
	CurrentBody       string
	SnapshotBody      string
	SnapshotTrusted   bool
	Incoming          book.NormalizedBook
	IncomingBody      string
	FormatOpts        book.FormatOptions
	PreservedUID      string
	Now               time.Time
	EmptyIncomingRule EmptyIncomingRule
}

// PrepareMerge performs the three-way merge described in spec.md §4.3: a
// missing, corrupt, or untrusted snapshot is treated as an empty ancestor
// rather than silently dropped, body conflicts are diff3'd with callout
// markers, and frontmatter is merged the same way "replace" does, with a
// last-merged stamp and a conflicts flag set whenever anything needed
// attention.
func PrepareMerge(p MergeParams) Outcome {
	if p.ExistingParseErr != nil {
		return failedOutcome(p.ExistingParseErr)
	}

	ancestor := p.SnapshotBody
	if !p.SnapshotTrusted {
		ancestor = ""
	}

	rule := p.EmptyIncomingRule
	if rule == "" {
		rule = RuleStrict
	}

	var mergedBody string
	var bodyConflicted bool
	if forceConflictOnEmptyIncoming(p.CurrentBody, ancestor, p.IncomingBody, rule) {
		mergedBody = joinLines(formatConflictRegion(splitLines(p.CurrentBody), splitLines(p.IncomingBody)))
		bodyConflicted = true
	} else {
		lines, conflicted := diff3Lines(splitLines(ancestor), splitLines(p.CurrentBody), splitLines(p.IncomingBody))
		mergedBody = joinLines(lines)
		bodyConflicted = conflicted
	}

	base := book.ParseFrontmatter(p.Existing)
	mergedFields := book.Merge(base, p.Incoming)
	doc := book.Format(mergedFields, p.FormatOpts)
	doc.Set(uid.ReservedUIDKey, p.PreservedUID)
	doc.Set("last-merged", p.Now.Format("2006-01-02"))
	unresolved := bodyConflicted || !p.SnapshotTrusted
	if unresolved {
		doc.Set("conflicts", "unresolved")
	}
	doc.Body = []byte(mergedBody)

	updater := func(*uid.Document) *uid.Document { return doc }
	if !unresolved {
		return safeOutcome(updater)
	}

	var diagnostics []string
	if !p.SnapshotTrusted {
		diagnostics = append(diagnostics, "baseline snapshot missing or untrusted; merged against an empty ancestor")
	}
	if bodyConflicted {
		diagnostics = append(diagnostics, "body contains one or more unresolved conflict regions")
	}
	return conflictedOutcome(updater, p.SnapshotTrusted, diagnostics)
}

// forceConflictOnEmptyIncoming implements the rule that protects a manually
// expanded note against an empty re-import (spec.md §4.3, §9).
func forceConflictOnEmptyIncoming(current, base, incoming string, rule EmptyIncomingRule) bool {
	if incoming != "" {
		return false
	}
	switch rule {
	case RuleAnyNonWhitespace:
		return strings.TrimSpace(current) != ""
	default:
		return len(current) > len(base)
	}
}
