package fsstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBackupRotatesBeyondMax(t *testing.T) {
	dir := t.TempDir()
	backupDir := SystemPath(filepath.Join(dir, "backups"))
	svc := &Service{root: SystemPath(dir)}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		now := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, svc.WriteBackup(backupDir, VaultPath("note.md"), "content", now, 3))
	}

	entries, err := os.ReadDir(string(backupDir))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestWriteBackupNoopWhenMaxIsZero(t *testing.T) {
	dir := t.TempDir()
	backupDir := SystemPath(filepath.Join(dir, "backups"))
	svc := &Service{root: SystemPath(dir)}

	require.NoError(t, svc.WriteBackup(backupDir, VaultPath("note.md"), "content", time.Now(), 0))

	_, err := os.Stat(string(backupDir))
	assert.True(t, os.IsNotExist(err))
}
