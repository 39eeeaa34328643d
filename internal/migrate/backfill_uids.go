package migrate

import (
	"context"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
)

// backfillUIDs assigns a kohl-uid to every note under HighlightsFolder that
// doesn't already have one, the way EnsureUID does for a single file during
// normal import (spec.md §6 "1.3.0-backfill-uids").
func backfillUIDs(ctx context.Context, r *Runner) error {
	listing, err := r.FS.ListFiles(ctx, r.HighlightsFolder, fsstore.ListOptions{Extensions: []string{"md"}, Recursive: true})
	if err != nil {
		return err
	}
	for _, path := range listing.Files {
		if ctx.Err() != nil {
			return errkind.WrapContext(ctx.Err())
		}
		if _, err := r.UIDs.EnsureUID(path); err != nil {
			return err
		}
	}
	return nil
}
