package uid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/pkg/interfaces"
)

// Snapshot is the persisted three-way-merge baseline for a note, keyed by
// its UID (spec.md §4.1, §4.3): the last content the system itself wrote,
// plus an integrity hash so corruption is detected rather than silently
// merged against garbage. Annotations is the side-channel record of the
// last device-side annotation list imported into this note, letting the
// duplicate classifier (internal/duplicate) compare against the next
// import without parsing the rendered body back apart, which spec.md §1
// explicitly rules out ("does not interpret note body content beyond
// line-wise three-way merge"). Only UID/Hash/Body are part of the
// documented on-disk snapshot file (spec.md §6); VaultPath/SavedAt/
// Annotations live in a sibling metadata file (see snapshotMetaPath) so the
// mandated `<uid>.md` snapshot format stays exactly `sha256: <hash>` then a
// blank line then the verbatim body.
type Snapshot struct {
	UID         string                  `json:"uid"`
	VaultPath   string                  `json:"vault_path"`
	Hash        string                  `json:"hash"`
	Body        string                  `json:"body"`
	SavedAt     time.Time               `json:"saved_at"`
	Annotations []interfaces.Annotation `json:"annotations,omitempty"`
}

// snapshotMeta is the sidecar record for the fields spec.md §6 doesn't
// reserve space for in the snapshot file itself.
type snapshotMeta struct {
	VaultPath   string                  `json:"vault_path"`
	SavedAt     time.Time               `json:"saved_at"`
	Annotations []interfaces.Annotation `json:"annotations,omitempty"`
}

// canonicalizeBody normalizes line endings before hashing/storing, so a
// baseline captured on one platform still integrity-checks on another.
func canonicalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	return body
}

func hashBody(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func (s *Store) snapshotPath(uid string) string {
	return filepath.Join(string(s.snapshotDir), uid+".md")
}

func (s *Store) snapshotMetaPath(uid string) string {
	return filepath.Join(string(s.snapshotDir), uid+".meta.json")
}

// encodeSnapshot renders the spec.md §6 mandated byte layout: a frontmatter
// block holding only sha256, a blank line, then the verbatim body.
func encodeSnapshot(hash, body string) string {
	return fmt.Sprintf("---\nsha256: %s\n---\n\n%s", hash, body)
}

// decodeSnapshot parses the §6 layout back into (hash, body). The body is
// everything after the first blank line following the closing `---`.
func decodeSnapshot(raw string) (hash, body string, err error) {
	const prefix = "---\n"
	if !strings.HasPrefix(raw, prefix) {
		return "", "", fmt.Errorf("snapshot: missing frontmatter delimiter")
	}
	rest := raw[len(prefix):]
	closing := strings.Index(rest, "\n---\n")
	if closing < 0 {
		return "", "", fmt.Errorf("snapshot: missing closing frontmatter delimiter")
	}
	frontmatter := rest[:closing]
	after := rest[closing+len("\n---\n"):]
	after = strings.TrimPrefix(after, "\n")

	for _, line := range strings.Split(frontmatter, "\n") {
		line = strings.TrimSpace(line)
		if value, ok := strings.CutPrefix(line, "sha256:"); ok {
			hash = strings.TrimSpace(value)
		}
	}
	if hash == "" {
		return "", "", fmt.Errorf("snapshot: missing sha256 frontmatter key")
	}
	return hash, after, nil
}

// WriteSnapshot captures content as the new baseline for uid, associating it
// with vaultPath for diagnostics. Content is canonicalized before hashing
// and storage.
func (s *Store) WriteSnapshot(uid string, vaultPath fsstore.VaultPath, content string, now time.Time) error {
	return s.WriteSnapshotFull(uid, vaultPath, content, nil, now)
}

// WriteSnapshotFull is WriteSnapshot plus the device annotation list the
// executor just imported, so the next import's duplicate classification has
// something to diff against (see Snapshot.Annotations).
func (s *Store) WriteSnapshotFull(uid string, vaultPath fsstore.VaultPath, content string, annotations []interfaces.Annotation, now time.Time) error {
	unlock := s.locks.Lock(uid)
	defer unlock()

	canon := canonicalizeBody(content)
	hash := hashBody(canon)

	if err := os.MkdirAll(string(s.snapshotDir), 0o755); err != nil {
		return errkind.New(errkind.SnapshotWriteFailed, "ensure snapshot dir", err).WithPath(string(vaultPath))
	}
	if err := atomic.WriteFile(s.snapshotPath(uid), strings.NewReader(encodeSnapshot(hash, canon))); err != nil {
		return errkind.New(errkind.SnapshotWriteFailed, "write snapshot", err).WithPath(string(vaultPath))
	}

	meta := snapshotMeta{VaultPath: string(vaultPath), SavedAt: now, Annotations: annotations}
	encodedMeta, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errkind.New(errkind.SnapshotWriteFailed, "marshal snapshot metadata", err).WithPath(string(vaultPath))
	}
	if err := atomic.WriteFile(s.snapshotMetaPath(uid), strings.NewReader(string(encodedMeta))); err != nil {
		return errkind.New(errkind.SnapshotWriteFailed, "write snapshot metadata", err).WithPath(string(vaultPath))
	}
	return nil
}

// ReadSnapshot loads the baseline for uid, verifying its integrity hash.
// Returns a SnapshotNotFound error if no baseline was ever captured, or
// SnapshotIntegrity if the stored hash doesn't match the stored body
// (e.g. the plugin data directory was synced by a tool unaware of it).
func (s *Store) ReadSnapshot(uid string) (*Snapshot, error) {
	unlock := s.locks.Lock(uid)
	defer unlock()

	data, err := os.ReadFile(s.snapshotPath(uid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errkind.New(errkind.SnapshotNotFound, "no baseline for note", err)
		}
		return nil, errkind.New(errkind.SnapshotReadFailed, "read snapshot", err)
	}

	hash, body, err := decodeSnapshot(string(data))
	if err != nil {
		return nil, errkind.New(errkind.SnapshotReadFailed, "decode snapshot", err)
	}

	snap := Snapshot{UID: uid, Hash: hash, Body: body}
	if metaData, err := os.ReadFile(s.snapshotMetaPath(uid)); err == nil {
		var meta snapshotMeta
		if err := json.Unmarshal(metaData, &meta); err == nil {
			snap.VaultPath = meta.VaultPath
			snap.SavedAt = meta.SavedAt
			snap.Annotations = meta.Annotations
		}
	}

	if hashBody(snap.Body) != snap.Hash {
		return nil, errkind.New(errkind.SnapshotIntegrity, "snapshot hash mismatch", nil).WithPath(snap.VaultPath)
	}
	return &snap, nil
}

// DeleteSnapshot removes the baseline for uid, both the snapshot file and
// its metadata sidecar; a baseline that does not exist is not an error.
func (s *Store) DeleteSnapshot(uid string) error {
	unlock := s.locks.Lock(uid)
	defer unlock()

	if err := os.Remove(s.snapshotPath(uid)); err != nil && !os.IsNotExist(err) {
		return errkind.New(errkind.SnapshotWriteFailed, "delete snapshot", err)
	}
	if err := os.Remove(s.snapshotMetaPath(uid)); err != nil && !os.IsNotExist(err) {
		return errkind.New(errkind.SnapshotWriteFailed, "delete snapshot metadata", err)
	}
	return nil
}
