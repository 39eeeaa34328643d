// Package book implements the Metadata Normalizer (spec.md §4.2): three pure
// stages that reduce device metadata and statistics into a canonical
// NormalizedBook, merge two such records under field-level policies, and
// format the result back into display frontmatter.
package book

import "time"

// ReadingStatus ranks unstarted < ongoing < abandoned < completed, the order
// high-water-mark merges must never regress against (spec.md §8 invariant 5).
type ReadingStatus string

const (
	StatusUnstarted ReadingStatus = "unstarted"
	StatusOngoing   ReadingStatus = "ongoing"
	StatusAbandoned ReadingStatus = "abandoned"
	StatusCompleted ReadingStatus = "completed"
)

var statusRank = map[ReadingStatus]int{
	StatusUnstarted: 0,
	StatusOngoing:   1,
	StatusAbandoned: 2,
	StatusCompleted: 3,
}

// rank returns an unknown or empty status's rank as -1, so it never wins
// against a recognized one.
func (s ReadingStatus) rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// NormalizedBook is the canonical, device-agnostic record the rest of the
// core operates on (spec.md §4.2). All fields are optional except Title;
// pointer fields distinguish "absent" from a real zero value, which the
// merge stage's preserve-if-missing policy depends on.
type NormalizedBook struct {
	Title       string
	Authors     []string
	Description string
	Keywords    []string
	Series      string
	Language    string
	Pages       int
	Rating      *float64

	ReadingStatus      ReadingStatus
	ProgressPercent    *int
	ReadingStreak      *int
	FirstRead          *time.Time
	LastRead           *time.Time
	ReadTimeSeconds    *int
	AverageTimePerPage *float64
	AvgSessionDuration *int
	HighlightCount     *int
	NoteCount          *int
	SessionCount       *int
}
