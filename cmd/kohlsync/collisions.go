package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohlsync/core/internal/fsstore"
)

var resolveCollisionsCmd = &cobra.Command{
	Use:   "resolve-collisions",
	Short: "Scan the highlights folder for notes sharing a UID and reassign the duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		groups, err := app.UIDs.ResolveCollisions(ctx, fsstore.VaultPath(app.Settings.HighlightsFolder))
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "resolved %d collision group(s)\n", len(groups))
		for _, g := range groups {
			fmt.Fprintf(cmd.OutOrStdout(), "  uid %s: kept %s, reassigned %d\n", g.UID, g.Keep, len(g.Reassign))
		}
		return nil
	},
}
