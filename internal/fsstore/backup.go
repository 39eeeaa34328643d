package fsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WriteBackup writes a timestamped copy of content into backupDir for the
// note at vaultPath, then rotates out older backups beyond maxPerNote
// (spec.md §4.6 step 6: "keep N newest per note, rotate older").
func (s *Service) WriteBackup(backupDir SystemPath, vaultPath VaultPath, content string, now time.Time, maxPerNote int) error {
	if maxPerNote <= 0 {
		return nil
	}
	if err := os.MkdirAll(string(backupDir), 0o755); err != nil {
		return err
	}

	stem := backupStem(vaultPath)
	name := fmt.Sprintf("%s.%s.bak", stem, now.UTC().Format("20060102T150405.000000000Z"))
	path := filepath.Join(string(backupDir), name)

	if err := writeFileAtomic(path, content); err != nil {
		return err
	}
	return rotateBackups(backupDir, stem, maxPerNote)
}

func backupStem(vaultPath VaultPath) string {
	clean := strings.ReplaceAll(string(vaultPath), "/", "__")
	return strings.TrimSuffix(clean, filepath.Ext(clean))
}

func rotateBackups(backupDir SystemPath, stem string, maxPerNote int) error {
	entries, err := os.ReadDir(string(backupDir))
	if err != nil {
		return err
	}
	var matches []os.DirEntry
	prefix := stem + "."
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".bak") {
			matches = append(matches, e)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name() > matches[j].Name() })
	for _, stale := range matches[min(len(matches), maxPerNote):] {
		_ = os.Remove(filepath.Join(string(backupDir), stale.Name()))
	}
	return nil
}
