package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	kohlsync "github.com/kohlsync/core"
)

// openApp builds the composition root from a command's persistent flags:
// --vault, --data-dir, --settings.
func openApp(ctx context.Context, cmd *cobra.Command) (*kohlsync.App, error) {
	vault, _ := cmd.Flags().GetString("vault")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	settingsPath, _ := cmd.Flags().GetString("settings")

	if dataDir == "" {
		dataDir = filepath.Join(vault, ".kohlsync")
	}

	var raw map[string]any
	if settingsPath != "" {
		b, err := os.ReadFile(settingsPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
	}

	return kohlsync.Open(ctx, kohlsync.Paths{VaultRoot: vault, PluginDataDir: dataDir}, raw)
}
