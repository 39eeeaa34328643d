package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kohlsync/core/internal/planner"
	"github.com/kohlsync/core/pkg/interfaces"
)

var importCmd = &cobra.Command{
	Use:   "import MANIFEST",
	Short: "Plan and apply a batch of device sources described by a manifest file",
	Long: `import reads a JSON array of device sources (the shape a device-side
metadata parser produces, pkg/interfaces.SourceDescriptor) from MANIFEST,
plans each one against the vault and the local index, and applies the
resulting decisions under per-book locks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var sources []interfaces.SourceDescriptor
		if err := json.Unmarshal(raw, &sources); err != nil {
			return fmt.Errorf("parsing manifest: %w", err)
		}

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		descriptors := make([]planner.SourceDescriptor, 0, len(sources))
		for _, src := range sources {
			descriptors = append(descriptors, toPlannerSource(src))
		}

		items, err := app.Planner.Plan(ctx, descriptors)
		if err != nil {
			return fmt.Errorf("planning: %w", err)
		}

		outcome := app.Executor.Run(ctx, items)
		for status, count := range outcome.CountByStatus() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", status, count)
		}
		for _, failure := range outcome.Errors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", failure.Item.Source.SourcePath, failure.Err)
		}
		if len(outcome.Errors()) > 0 {
			return fmt.Errorf("%d item(s) failed to apply", len(outcome.Errors()))
		}
		return nil
	},
}

// toPlannerSource adapts the host-facing manifest entry (exported for
// external callers, pkg/interfaces.SourceDescriptor) into the planner's own
// working type. The two stay distinct because the manifest format is a
// public input contract while planner.SourceDescriptor also carries
// NewestAnnotationTS, a value the planner derives rather than something a
// manifest author supplies.
func toPlannerSource(src interfaces.SourceDescriptor) planner.SourceDescriptor {
	var newest int64
	for _, a := range src.Metadata.Annotations {
		if ts := a.DateTime.Unix(); ts > newest {
			newest = ts
		}
	}
	return planner.SourceDescriptor{
		SourcePath:         src.SourcePath,
		MtimeUnix:          src.Mtime.Unix(),
		Size:               src.Size,
		Metadata:           src.Metadata,
		Statistics:         src.Statistics,
		NewestAnnotationTS: newest,
	}
}
