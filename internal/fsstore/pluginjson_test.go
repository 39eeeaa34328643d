package fsstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPluginData struct {
	SchemaVersion     int            `json:"schema_version"`
	Settings          map[string]any `json:"settings"`
	AppliedMigrations []string       `json:"applied_migrations"`
}

func TestWritePluginDataJSONAtomicRoundTrips(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{root: SystemPath(dir)}
	path := SystemPath(filepath.Join(dir, "data.json"))

	in := testPluginData{SchemaVersion: 3, Settings: map[string]any{"a": 1}, AppliedMigrations: []string{"1.3.0-backfill-uids"}}
	require.NoError(t, svc.WritePluginDataJSONAtomic(path, in))

	var out testPluginData
	require.NoError(t, svc.TryReadPluginDataJSON(path, &out))
	assert.Equal(t, in.SchemaVersion, out.SchemaVersion)
	assert.Equal(t, in.AppliedMigrations, out.AppliedMigrations)
}

func TestWritePluginDataJSONAtomicRejectsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{root: SystemPath(dir)}
	path := SystemPath(filepath.Join(dir, "data.json"))

	err := svc.WritePluginDataJSONAtomic(path, map[string]any{"settings": map[string]any{}})
	assert.Error(t, err)
}

func TestTryReadPluginDataJSONFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{root: SystemPath(dir)}
	path := SystemPath(filepath.Join(dir, "data.json"))

	in := testPluginData{SchemaVersion: 1, Settings: map[string]any{}, AppliedMigrations: []string{}}
	require.NoError(t, svc.WritePluginDataJSONAtomic(path, in))
	require.NoError(t, svc.WritePluginDataJSONAtomic(path, testPluginData{SchemaVersion: 2, Settings: map[string]any{}, AppliedMigrations: []string{}}))

	// Primary now holds schema_version 2, backup holds schema_version 1.
	var fromBackup testPluginData
	require.NoError(t, readJSONFile(string(path)+".bak", &fromBackup))
	assert.Equal(t, 1, fromBackup.SchemaVersion)

	// With the primary corrupted, TryReadPluginDataJSON reads the backup.
	require.NoError(t, os.WriteFile(string(path), []byte("{not json"), 0o644))
	var out testPluginData
	require.NoError(t, svc.TryReadPluginDataJSON(path, &out))
	assert.Equal(t, 1, out.SchemaVersion)
}
