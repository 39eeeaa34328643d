package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kohlsync",
	Short:   "Import device reading annotations into an Obsidian-style vault",
	Long:    `kohlsync ingests KOReader-style annotation exports into vault notes, keyed by a stable per-note identity and reconciled with a three-way merge.`,
	Version: version,
}

const version = "dev"

func init() {
	rootCmd.PersistentFlags().String("vault", ".", "path to the vault root")
	rootCmd.PersistentFlags().String("data-dir", "", "path to the plugin's private data directory (default: <vault>/.kohlsync)")
	rootCmd.PersistentFlags().String("settings", "", "path to a JSON settings file (default: built-in defaults)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resolveCollisionsCmd)
}
