package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohlsync/core/internal/migrate"
)

var purgeOrphans bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending plugin-data migrations",
	Long: `migrate brings the plugin's stored data up to date: assigning stable
identities to every note missing one, moving legacy path-keyed snapshots to
the current UID-keyed layout, resolving UID collisions, and confirming the
local index database's own schema migrations have completed.

Legacy snapshots that no longer match any surviving note are left in place
rather than deleted, since the note they belonged to might simply be
missing from this run's listing rather than gone for good. Pass
--purge-orphans to delete them explicitly once you've confirmed that.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if purgeOrphans {
			purged, err := migrate.PurgeOrphanedSnapshots(ctx, app.Migrate)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d orphaned legacy snapshot(s)\n", purged)
			return nil
		}

		data, err := migrate.Load(app.FS, app.MigrateDataPath())
		if err != nil {
			return err
		}

		before := len(data.AppliedMigrations)
		data, err = app.Migrate.Apply(ctx, data)
		if saveErr := migrate.Save(app.FS, app.MigrateDataPath(), data); saveErr != nil && err == nil {
			err = saveErr
		}
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		applied := len(data.AppliedMigrations) - before
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s); now at %q\n", applied, data.LastPluginMigratedTo)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&purgeOrphans, "purge-orphans", false, "delete orphaned legacy snapshots left behind by the rename-to-uid migration")
}
