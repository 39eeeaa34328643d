package migrate

import "context"

// upgradeIndexDatabase is a fence, not a second migration runner: the index
// package applies its own registered schema migrations synchronously
// whenever it's opened (internal/index/migrations.go), so by the time a
// Runner exists its schema is already current. This step only confirms
// that happened, surfacing a clear MigrationFailed error if the index
// couldn't report its applied set rather than silently proceeding against
// a database that might still be on an old schema (spec.md §6
// "1.3.0-upgrade-index-database").
func upgradeIndexDatabase(ctx context.Context, r *Runner) error {
	if r.IndexDB == nil {
		return nil
	}
	_, err := r.IndexDB.AppliedMigrations(ctx)
	return err
}
