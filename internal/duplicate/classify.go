// Package duplicate implements the classification and candidate-finding
// half of the Import Planner (spec.md §4.5): given a device-side annotation
// list and whatever an existing note already contains, decide whether the
// import is a clean repeat, a pure addition, or touches something a person
// already edited.
package duplicate

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/kohlsync/core/pkg/interfaces"
)

// Classification is the verdict from comparing two annotation lists.
type Classification string

const (
	Exact     Classification = "exact"
	Updated   Classification = "updated"
	Divergent Classification = "divergent"
)

// annotationKey is the (page, pos0, pos1, datetime, text-hash) identity
// spec.md §4.5 defines for matching annotations across imports.
type annotationKey struct {
	page     int
	pos0     string
	pos1     string
	datetime int64
	textHash string
}

func keyFor(a interfaces.Annotation) annotationKey {
	sum := sha256.Sum256([]byte(a.Text))
	return annotationKey{
		page:     a.Page,
		pos0:     a.Pos0,
		pos1:     a.Pos1,
		datetime: a.DateTime.Unix(),
		textHash: hex.EncodeToString(sum[:8]),
	}
}

// Classify compares existing (what the note already has) against incoming
// (the freshly parsed device annotations) and returns the classification
// plus counts of new and modified annotations, used both for the
// classification itself and for ManualDuplicate candidate sorting (spec.md
// §4.5: "fewer modified existing highlights", "fewer new highlights").
func Classify(existing, incoming []interfaces.Annotation) (class Classification, newCount, modifiedCount int) {
	existingByKey := make(map[annotationKey]interfaces.Annotation, len(existing))
	for _, a := range existing {
		existingByKey[keyFor(a)] = a
	}

	seen := make(map[annotationKey]bool, len(incoming))
	for _, a := range incoming {
		k := keyFor(a)
		seen[k] = true
		if _, ok := existingByKey[k]; !ok {
			newCount++
		}
	}

	for k := range existingByKey {
		if !seen[k] {
			modifiedCount++
		}
	}

	switch {
	case newCount == 0 && modifiedCount == 0:
		class = Exact
	case modifiedCount == 0:
		class = Updated
	default:
		class = Divergent
	}
	return class, newCount, modifiedCount
}

// rank orders classifications for ManualDuplicate sorting: exact < updated <
// divergent (spec.md §4.5 sort key (a)).
func (c Classification) rank() int {
	switch c {
	case Exact:
		return 0
	case Updated:
		return 1
	default:
		return 2
	}
}

// Rank exposes rank() to the planner package without widening Classify's
// own exported surface.
func Rank(c Classification) int { return c.rank() }
