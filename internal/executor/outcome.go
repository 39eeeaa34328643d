package executor

import (
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/planner"
)

// Status is the terminal state the executor recorded for one plan item
// (spec.md §4.6).
type Status string

const (
	Created         Status = "created"
	Replaced        Status = "replaced"
	Merged          Status = "merged"
	Unchanged       Status = "unchanged"
	Skipped         Status = "skipped"
	ManualDuplicate Status = "manual_duplicate"
	Failed          Status = "failed"
)

// Result is one plan item's outcome. Diagnostics are non-fatal: a merge
// that needed attention, or a snapshot/index write that failed after the
// note content itself was already safely persisted (spec.md §4.6 step 9).
type Result struct {
	Item        planner.PlanItem
	Path        fsstore.VaultPath
	Status      Status
	Diagnostics []string
	Err         error
}

// Failed reports whether the item could not be applied at all.
func (r Result) Failed() bool { return r.Status == Failed }

// BatchOutcome aggregates a Run call's results for reporting.
type BatchOutcome struct {
	Results []Result
}

// CountByStatus tallies results per status, for summary logging.
func (b BatchOutcome) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, r := range b.Results {
		counts[r.Status]++
	}
	return counts
}

// Errors returns every result that failed outright.
func (b BatchOutcome) Errors() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}
