package executor

import (
	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/pkg/interfaces"
)

// BodyRenderer turns a book's device annotations into the Markdown body a
// note's content section should contain. Markdown rendering from
// annotations via a user template language is an out-of-scope external
// collaborator (spec.md §1); the executor depends on this interface the
// same way it depends on interfaces.BookStatisticsProvider, rather than
// owning the template engine itself.
type BodyRenderer interface {
	Render(nb book.NormalizedBook, annotations []interfaces.Annotation) (string, error)
}
