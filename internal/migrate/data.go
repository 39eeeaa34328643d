// Package migrate implements the plugin-data migration registry (spec.md
// §6): a fixed, ordered list of one-time upgrade steps applied to the
// persisted plugin data file, distinct from internal/index's own SQL schema
// migrations, which run independently whenever the index is opened.
package migrate

import (
	"encoding/json"

	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/settings"
)

// currentSchemaVersion is written into fresh PluginData and bumped whenever
// the persisted shape itself changes, independent of the migration IDs
// tracked in AppliedMigrations.
const currentSchemaVersion = 1

// Data is the plugin's persisted configuration and migration bookkeeping
// (spec.md §6): `{schema_version, settings, applied_migrations,
// last_plugin_migrated_to?}`.
type Data struct {
	SchemaVersion        int            `json:"schema_version"`
	Settings             map[string]any `json:"settings"`
	AppliedMigrations    []string       `json:"applied_migrations"`
	LastPluginMigratedTo string         `json:"last_plugin_migrated_to,omitempty"`
}

// Load reads the plugin data file (falling back to its .bak sibling), or
// returns a fresh Data seeded from settings.Default if neither exists.
func Load(fs *fsstore.Service, path fsstore.SystemPath) (Data, error) {
	var data Data
	if err := fs.TryReadPluginDataJSON(path, &data); err != nil {
		defaults := settings.Default()
		raw, marshalErr := settingsToMap(defaults)
		if marshalErr != nil {
			return Data{}, marshalErr
		}
		return Data{SchemaVersion: currentSchemaVersion, Settings: raw, AppliedMigrations: []string{}}, nil
	}
	if data.AppliedMigrations == nil {
		data.AppliedMigrations = []string{}
	}
	return data, nil
}

// Save persists data atomically via the filesystem service's plugin-data
// writer, which validates the shape and keeps a .bak sibling.
func Save(fs *fsstore.Service, path fsstore.SystemPath, data Data) error {
	return fs.WritePluginDataJSONAtomic(path, data)
}

func settingsToMap(s settings.Settings) (map[string]any, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}
