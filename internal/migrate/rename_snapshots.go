package migrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/uid"
)

// renameSnapshotsToUID migrates the pre-1.3.0 snapshot layout, keyed by a
// hash of the note's vault path at the time it was written, to the current
// UID-keyed layout (spec.md §6 "1.3.0-rename-snapshots-to-uid"). It assumes
// backfillUIDs already ran, so every surviving note has a UID to migrate
// its snapshot onto.
func renameSnapshotsToUID(ctx context.Context, r *Runner) error {
	if r.LegacySnapshotDir == "" {
		return nil
	}
	entries, err := os.ReadDir(string(r.LegacySnapshotDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errkind.New(errkind.SnapshotMigrateFail, "list legacy snapshot directory", err)
	}

	listing, err := r.FS.ListFiles(ctx, r.HighlightsFolder, fsstore.ListOptions{Extensions: []string{"md"}, Recursive: true})
	if err != nil {
		return err
	}
	byLegacyHash := make(map[string]fsstore.VaultPath, len(listing.Files))
	for _, path := range listing.Files {
		byLegacyHash[legacyPathHash(string(path))] = path
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return errkind.WrapContext(ctx.Err())
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		legacyPath := filepath.Join(string(r.LegacySnapshotDir), entry.Name())
		raw, err := os.ReadFile(legacyPath)
		if err != nil {
			return errkind.New(errkind.SnapshotMigrateFail, "read legacy snapshot", err).WithPath(legacyPath)
		}
		var snap uid.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return errkind.New(errkind.SnapshotMigrateFail, "decode legacy snapshot", err).WithPath(legacyPath)
		}

		vaultPath, ok := byLegacyHash[strings.TrimSuffix(entry.Name(), ".json")]
		if !ok {
			// Orphaned: no surviving note hashes to this key, so there's
			// nothing to carry the snapshot onto. Left in place rather than
			// deleted here; an operator can reclaim the space explicitly
			// via PurgeOrphanedSnapshots once they've confirmed the note is
			// really gone.
			if r.Logger != nil {
				r.Logger.Warn("orphaned legacy snapshot has no matching note, leaving in place", "path", legacyPath)
			}
			continue
		}

		source, err := r.FS.ReadText(vaultPath)
		if err != nil {
			return err
		}
		noteUID, ok := uid.TryGetUID([]byte(source))
		if !ok {
			continue
		}

		if err := r.UIDs.WriteSnapshot(noteUID, vaultPath, snap.Body, snap.SavedAt); err != nil {
			return err
		}
		_ = os.Remove(legacyPath)
	}
	return nil
}

func legacyPathHash(vaultPath string) string {
	sum := sha256.Sum256([]byte(vaultPath))
	return hex.EncodeToString(sum[:])
}

// PurgeOrphanedSnapshots deletes legacy snapshot files left behind by
// renameSnapshotsToUID because no surviving note's vault path hashed to
// their key. It never runs as part of Apply; an operator invokes it
// explicitly once they've confirmed those notes are really gone, never
// implicitly during a normal migration run. Returns the count of files
// removed.
func PurgeOrphanedSnapshots(ctx context.Context, r *Runner) (int, error) {
	if r.LegacySnapshotDir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(string(r.LegacySnapshotDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errkind.New(errkind.SnapshotMigrateFail, "list legacy snapshot directory", err)
	}

	listing, err := r.FS.ListFiles(ctx, r.HighlightsFolder, fsstore.ListOptions{Extensions: []string{"md"}, Recursive: true})
	if err != nil {
		return 0, err
	}
	byLegacyHash := make(map[string]fsstore.VaultPath, len(listing.Files))
	for _, path := range listing.Files {
		byLegacyHash[legacyPathHash(string(path))] = path
	}

	purged := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return purged, errkind.WrapContext(ctx.Err())
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, ok := byLegacyHash[strings.TrimSuffix(entry.Name(), ".json")]; ok {
			continue
		}

		legacyPath := filepath.Join(string(r.LegacySnapshotDir), entry.Name())
		if err := os.Remove(legacyPath); err != nil && !os.IsNotExist(err) {
			return purged, errkind.New(errkind.SnapshotMigrateFail, "purge orphaned snapshot", err).WithPath(legacyPath)
		}
		if r.Logger != nil {
			r.Logger.Info("purged orphaned legacy snapshot", "path", legacyPath)
		}
		purged++
	}
	return purged, nil
}
