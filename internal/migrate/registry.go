package migrate

import (
	"context"
	"fmt"

	"github.com/kohlsync/core/internal/errkind"
)

// Migration is one registered, ordered plugin-data upgrade step (spec.md
// §6). IDs are permanent once released: new steps are appended, never
// reordered, renamed, or edited in place.
type Migration struct {
	ID string
	Up func(ctx context.Context, r *Runner) error
}

// registry is the fixed, ordered migration history.
var registry = []Migration{
	{ID: "1.3.0-backfill-uids", Up: backfillUIDs},
	{ID: "1.3.0-rename-snapshots-to-uid", Up: renameSnapshotsToUID},
	{ID: "1.3.0-resolve-uid-collisions", Up: resolveUIDCollisions},
	{ID: "1.3.0-upgrade-index-database", Up: upgradeIndexDatabase},
}

// Apply runs every registered migration not already present in data's
// AppliedMigrations, in registration order, against a single in-memory
// Data value. The first failure aborts the remaining migrations in this
// run (spec.md §6: "their IDs are not appended to applied_migrations");
// migrations that already succeeded earlier in the same call stay applied.
// The caller is responsible for persisting the returned Data regardless of
// whether Apply returns an error, so successful steps aren't lost.
func (r *Runner) Apply(ctx context.Context, data Data) (Data, error) {
	applied := make(map[string]bool, len(data.AppliedMigrations))
	for _, id := range data.AppliedMigrations {
		applied[id] = true
	}

	for _, m := range registry {
		if applied[m.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return data, errkind.WrapContext(err)
		}
		if err := m.Up(ctx, r); err != nil {
			return data, errkind.New(errkind.MigrationFailed, fmt.Sprintf("migration %s failed", m.ID), err)
		}
		data.AppliedMigrations = append(data.AppliedMigrations, m.ID)
		data.LastPluginMigratedTo = m.ID
	}
	return data, nil
}
