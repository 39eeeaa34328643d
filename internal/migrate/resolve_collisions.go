package migrate

import "context"

// resolveUIDCollisions runs collision resolution once as part of the
// upgrade path, so any pre-1.3.0 vault that already accumulated duplicate
// kohl-uid values (e.g. from copy/paste) starts clean (spec.md §6
// "1.3.0-resolve-uid-collisions").
func resolveUIDCollisions(ctx context.Context, r *Runner) error {
	_, err := r.UIDs.ResolveCollisions(ctx, r.HighlightsFolder)
	return err
}
