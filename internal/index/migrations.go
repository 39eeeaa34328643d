package index

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/kohlsync/core/internal/errkind"
)

// Migration is one registered, ordered schema step (spec.md §4.4: "On open,
// registered, ordered migrations whose ID is not in applied_migrations are
// executed inside a single write transaction per migration; successful
// migrations append their ID. Failed migrations abort the batch").
type Migration struct {
	ID string
	Up func(ctx context.Context, tx bun.Tx) error
}

// migrations is the ordered schema history. Each entry's Up must be
// idempotent against a freshly created schema_migrations/books/... set, and
// new entries are always appended, never reordered or edited in place.
var migrations = []Migration{
	{
		ID: "0001-initial-schema",
		Up: func(ctx context.Context, tx bun.Tx) error {
			for _, model := range []any{
				(*Book)(nil),
				(*BookInstance)(nil),
				(*ImportSource)(nil),
			} {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// migrate ensures the schema_migrations bookkeeping table exists, then runs
// every migration whose ID hasn't already been applied, in declaration
// order, aborting the whole open on the first failure (spec.md §4.4).
func (d *DB) migrate(ctx context.Context) error {
	if _, err := d.bun.NewCreateTable().Model((*SchemaMigration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return errkind.New(errkind.DbOpenFailed, "create schema_migrations table", err)
	}

	var applied []SchemaMigration
	if err := d.bun.NewSelect().Model(&applied).Scan(ctx); err != nil {
		return errkind.New(errkind.DbOpenFailed, "load applied migrations", err)
	}
	appliedSet := make(map[string]bool, len(applied))
	for _, m := range applied {
		appliedSet[m.ID] = true
	}

	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !appliedSet[m.ID] {
			pending = append(pending, m)
		}
	}

	for _, m := range pending {
		err := d.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := m.Up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.NewInsert().Model(&SchemaMigration{ID: m.ID}).Exec(ctx)
			return err
		})
		if err != nil {
			return errkind.New(errkind.DbOpenFailed, "apply migration "+m.ID, err)
		}
	}
	return nil
}

// AppliedMigrations returns the IDs already recorded, used by diagnostics
// and by the plugin-data migration registry (internal/migrate) to decide
// whether the index itself still needs an upgrade (spec.md's
// "1.3.0-upgrade-index-database" migration).
func (d *DB) AppliedMigrations(ctx context.Context) ([]string, error) {
	var rows []SchemaMigration
	if err := d.bun.NewSelect().Model(&rows).OrderExpr("applied_at ASC").Scan(ctx); err != nil {
		return nil, errkind.New(errkind.DbOperationFailed, "list applied migrations", err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}
