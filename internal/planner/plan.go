// Package planner implements the Import Planner (spec.md §4.5): turning an
// iterator of device-side source descriptors into an ordered list of
// PlanItem decisions the executor can apply.
package planner

import (
	"context"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/duplicate"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/uid"
	"github.com/kohlsync/core/pkg/interfaces"
)

// Kind discriminates a PlanItem's variant.
type Kind string

const (
	Skip            Kind = "skip"
	Create          Kind = "create"
	Replace         Kind = "replace"
	Merge           Kind = "merge"
	ManualDuplicate Kind = "manual_duplicate"
)

// ReplaceOrMergePolicy selects what a single UID-matched candidate resolves
// to (spec.md §4.5: "emit Replace or Merge per a configured policy
// (auto-merge-on-addition). Default: Merge").
type ReplaceOrMergePolicy string

const (
	PolicyMerge   ReplaceOrMergePolicy = "merge"
	PolicyReplace ReplaceOrMergePolicy = "replace"
)

// SourceDescriptor is one device-side source the planner evaluates.
type SourceDescriptor struct {
	SourcePath         string
	MtimeUnix          int64
	Size               int64
	Metadata           interfaces.DeviceMetadata
	Statistics         *interfaces.BookStatistics
	NewestAnnotationTS int64
}

// PlanItem is the tagged-variant decision for one source (spec.md §4.5).
// Only the fields relevant to Kind are populated; callers switch on Kind
// before reading them, the same discriminated-union pattern internal/merge's
// Outcome uses.
type PlanItem struct {
	Kind           Kind
	Source         SourceDescriptor
	NormalizedBook book.NormalizedBook
	BookKey        book.Key
	Candidate      *duplicate.Candidate  // set for Replace/Merge
	Candidates     []duplicate.Candidate // set for ManualDuplicate, pre-sorted
}

// Planner computes PlanItems against the index and the duplicate finder.
type Planner struct {
	Index  *index.Store
	Finder *duplicate.Finder
	UIDs   *uid.Store
	Policy ReplaceOrMergePolicy
}

// Plan evaluates every source descriptor and returns one PlanItem per
// source, in input order.
func (p *Planner) Plan(ctx context.Context, sources []SourceDescriptor) ([]PlanItem, error) {
	items := make([]PlanItem, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := p.planOne(ctx, src)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Planner) planOne(ctx context.Context, src SourceDescriptor) (PlanItem, error) {
	nb := book.Normalize(src.Metadata, src.Statistics)
	bookKey := book.ComputeKey(nb)

	existingSource, found, err := p.Index.GetImportSource(ctx, src.SourcePath)
	if err != nil {
		return PlanItem{}, err
	}
	if found && importSourceUnchanged(existingSource, src) {
		return PlanItem{Kind: Skip, Source: src, NormalizedBook: nb, BookKey: bookKey}, nil
	}

	candidates, err := p.Finder.Find(ctx, nb, src.Metadata.UID)
	if err != nil {
		return PlanItem{}, err
	}

	switch len(candidates) {
	case 0:
		return PlanItem{Kind: Create, Source: src, NormalizedBook: nb, BookKey: bookKey}, nil
	case 1:
		if src.Metadata.UID != "" && candidates[0].UID == src.Metadata.UID {
			kind := Merge
			if p.Policy == PolicyReplace {
				kind = Replace
			}
			c := candidates[0]
			return PlanItem{Kind: kind, Source: src, NormalizedBook: nb, BookKey: bookKey, Candidate: &c}, nil
		}
		fallthrough
	default:
		sorted, err := sortManualDuplicates(candidates, p.UIDs, src.Metadata.Annotations)
		if err != nil {
			return PlanItem{}, err
		}
		return PlanItem{Kind: ManualDuplicate, Source: src, NormalizedBook: nb, BookKey: bookKey, Candidates: sorted}, nil
	}
}

func importSourceUnchanged(row *index.ImportSource, src SourceDescriptor) bool {
	if row.LastProcessedMtime != src.MtimeUnix || row.LastProcessedSize != src.Size {
		return false
	}
	if row.NewestAnnotationTS == nil {
		return src.NewestAnnotationTS == 0
	}
	return *row.NewestAnnotationTS == src.NewestAnnotationTS
}
