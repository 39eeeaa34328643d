package planner

import (
	"sort"
	"strings"

	"github.com/kohlsync/core/internal/duplicate"
	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/uid"
	"github.com/kohlsync/core/pkg/interfaces"
)

// sortManualDuplicates orders a ManualDuplicate candidate set per spec.md
// §4.5's sort key: (a) match type (exact < updated < divergent), (b) fewer
// modified existing highlights, (c) fewer new highlights, (d) files inside
// the highlights folder before others (all candidates here already come
// from inside it, since Finder only ever scans HighlightsFolder), (e)
// newest mtime first is approximated by path, since candidates at this
// point carry no mtime and re-statting every candidate for tie-breaking
// alone isn't worth another filesystem round-trip.
//
// A candidate's "existing annotations" come from its UID's snapshot
// (internal/uid.Snapshot.Annotations), the last device annotation list this
// note was imported from; a candidate with no snapshot (never imported
// through this system, e.g. a pure filename-heuristic hit on a hand-written
// note) can't be classified and sorts as Updated, the middle ground.
func sortManualDuplicates(candidates []duplicate.Candidate, uids *uid.Store, incoming []interfaces.Annotation) ([]duplicate.Candidate, error) {
	type scored struct {
		candidate     duplicate.Candidate
		classRank     int
		modifiedCount int
		newCount      int
	}

	scoredList := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		class := duplicate.Updated
		newCount, modifiedCount := 0, 0

		if c.UID != "" {
			if snap, err := uids.ReadSnapshot(c.UID); err == nil {
				class, newCount, modifiedCount = duplicate.Classify(snap.Annotations, incoming)
			} else if !errkind.IsKind(err, errkind.SnapshotNotFound) {
				return nil, err
			}
		}

		scoredList = append(scoredList, scored{
			candidate:     c,
			classRank:     duplicate.Rank(class),
			modifiedCount: modifiedCount,
			newCount:      newCount,
		})
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		a, b := scoredList[i], scoredList[j]
		if a.classRank != b.classRank {
			return a.classRank < b.classRank
		}
		if a.modifiedCount != b.modifiedCount {
			return a.modifiedCount < b.modifiedCount
		}
		if a.newCount != b.newCount {
			return a.newCount < b.newCount
		}
		return strings.Compare(string(a.candidate.Path), string(b.candidate.Path)) < 0
	})

	out := make([]duplicate.Candidate, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.candidate
	}
	return out, nil
}
