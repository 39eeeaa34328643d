package migrate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/uid"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	dir := t.TempDir()
	fs := fsstore.NewService(fsstore.SystemPath(dir), fsstore.SystemPath(filepath.Join(dir, ".kohl")))
	uidStore := uid.NewStore(fs, fsstore.SystemPath(filepath.Join(dir, ".kohl", "snapshots")))

	db, err := index.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &Runner{
		FS:                fs,
		UIDs:              uidStore,
		IndexDB:           db,
		HighlightsFolder:  fsstore.VaultPath("Books"),
		LegacySnapshotDir: fsstore.SystemPath(filepath.Join(dir, ".kohl", "legacy-snapshots")),
	}
}

func TestApplyRunsEveryMigrationOnFreshData(t *testing.T) {
	r := newTestRunner(t)
	require.NoError(t, r.FS.WriteTextAtomic("Books/a.md", "---\ntitle: A\n---\nbody"))

	data := Data{SchemaVersion: currentSchemaVersion, Settings: map[string]any{}, AppliedMigrations: []string{}}
	out, err := r.Apply(context.Background(), data)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"1.3.0-backfill-uids",
		"1.3.0-rename-snapshots-to-uid",
		"1.3.0-resolve-uid-collisions",
		"1.3.0-upgrade-index-database",
	}, out.AppliedMigrations)
	assert.Equal(t, "1.3.0-upgrade-index-database", out.LastPluginMigratedTo)

	content, err := r.FS.ReadText("Books/a.md")
	require.NoError(t, err)
	assert.Contains(t, content, "kohl-uid")
}

func TestApplySkipsMigrationsAlreadyRecorded(t *testing.T) {
	r := newTestRunner(t)
	data := Data{
		SchemaVersion: currentSchemaVersion,
		Settings:      map[string]any{},
		AppliedMigrations: []string{
			"1.3.0-backfill-uids",
			"1.3.0-rename-snapshots-to-uid",
			"1.3.0-resolve-uid-collisions",
			"1.3.0-upgrade-index-database",
		},
	}
	out, err := r.Apply(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, data.AppliedMigrations, out.AppliedMigrations)
	assert.Empty(t, out.LastPluginMigratedTo)
}

func TestApplyAbortsRemainingMigrationsOnFailure(t *testing.T) {
	r := newTestRunner(t)

	saved := registry[1]
	registry[1] = Migration{ID: saved.ID, Up: func(ctx context.Context, r *Runner) error {
		return assert.AnError
	}}
	defer func() { registry[1] = saved }()

	data := Data{SchemaVersion: currentSchemaVersion, Settings: map[string]any{}, AppliedMigrations: []string{}}
	out, err := r.Apply(context.Background(), data)
	require.Error(t, err)

	assert.Equal(t, []string{"1.3.0-backfill-uids"}, out.AppliedMigrations)
	assert.NotContains(t, out.AppliedMigrations, saved.ID)
}

func TestRenameSnapshotsToUIDMigratesLegacyFileAndLeavesOrphansInPlace(t *testing.T) {
	r := newTestRunner(t)
	require.NoError(t, r.FS.WriteTextAtomic("Books/a.md", "---\ntitle: A\n---\nbody"))
	noteUID, err := r.UIDs.EnsureUID("Books/a.md")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(string(r.LegacySnapshotDir), 0o755))

	legacy := uid.Snapshot{VaultPath: "Books/a.md", Body: "legacy body", SavedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	encoded, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(string(r.LegacySnapshotDir), legacyPathHash("Books/a.md")+".json"), encoded, 0o644))

	orphan := uid.Snapshot{VaultPath: "Books/gone.md", Body: "orphan body"}
	encodedOrphan, err := json.Marshal(orphan)
	require.NoError(t, err)
	orphanPath := filepath.Join(string(r.LegacySnapshotDir), legacyPathHash("Books/gone.md")+".json")
	require.NoError(t, os.WriteFile(orphanPath, encodedOrphan, 0o644))

	require.NoError(t, renameSnapshotsToUID(context.Background(), r))

	snap, err := r.UIDs.ReadSnapshot(noteUID)
	require.NoError(t, err)
	assert.Equal(t, "legacy body", snap.Body)

	_, statErr := os.Stat(orphanPath)
	require.NoError(t, statErr, "orphaned legacy snapshot must be left in place, not silently deleted")
}

func TestPurgeOrphanedSnapshotsDeletesOnlyUnmatchedFiles(t *testing.T) {
	r := newTestRunner(t)
	require.NoError(t, r.FS.WriteTextAtomic("Books/a.md", "---\ntitle: A\n---\nbody"))
	noteUID, err := r.UIDs.EnsureUID("Books/a.md")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(string(r.LegacySnapshotDir), 0o755))

	legacy := uid.Snapshot{VaultPath: "Books/a.md", Body: "legacy body", SavedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	encoded, err := json.Marshal(legacy)
	require.NoError(t, err)
	matchedPath := filepath.Join(string(r.LegacySnapshotDir), legacyPathHash("Books/a.md")+".json")
	require.NoError(t, os.WriteFile(matchedPath, encoded, 0o644))

	orphan := uid.Snapshot{VaultPath: "Books/gone.md", Body: "orphan body"}
	encodedOrphan, err := json.Marshal(orphan)
	require.NoError(t, err)
	orphanPath := filepath.Join(string(r.LegacySnapshotDir), legacyPathHash("Books/gone.md")+".json")
	require.NoError(t, os.WriteFile(orphanPath, encodedOrphan, 0o644))

	require.NoError(t, renameSnapshotsToUID(context.Background(), r))
	_, err = r.UIDs.ReadSnapshot(noteUID)
	require.NoError(t, err)
	require.FileExists(t, orphanPath)

	purged, err := PurgeOrphanedSnapshots(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, statErr := os.Stat(orphanPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadSeedsFreshDataFromDefaultsWhenFileMissing(t *testing.T) {
	r := newTestRunner(t)
	data, err := Load(r.FS, fsstore.SystemPath(filepath.Join("nonexistent", "data.json")))
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, data.SchemaVersion)
	assert.NotNil(t, data.Settings)
	assert.Empty(t, data.AppliedMigrations)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	r := newTestRunner(t)
	path := fsstore.SystemPath(filepath.Join(os.TempDir(), "kohlsync-migrate-test", "data.json"))
	t.Cleanup(func() { _ = os.RemoveAll(filepath.Dir(string(path))) })

	data := Data{SchemaVersion: currentSchemaVersion, Settings: map[string]any{"highlightsFolder": "Books"}, AppliedMigrations: []string{"1.3.0-backfill-uids"}}
	require.NoError(t, Save(r.FS, path, data))

	loaded, err := Load(r.FS, path)
	require.NoError(t, err)
	assert.Equal(t, data.AppliedMigrations, loaded.AppliedMigrations)
}
