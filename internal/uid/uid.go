package uid

import (
	"github.com/google/uuid"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
)

// Store implements the §4.1 Note Identity & Snapshot Store operations
// against a filesystem service.
type Store struct {
	fs          *fsstore.Service
	snapshotDir fsstore.SystemPath
	locks       *keyedMutex
}

// NewStore constructs a Store backed by fs, persisting snapshot baselines
// under snapshotDir.
func NewStore(fs *fsstore.Service, snapshotDir fsstore.SystemPath) *Store {
	return &Store{fs: fs, snapshotDir: snapshotDir, locks: newKeyedMutex()}
}

// TryGetUID reads the UID from file's parsed frontmatter without touching
// snapshots. Returns ("", false) if absent or malformed.
func TryGetUID(source []byte) (string, bool) {
	doc, err := ParseDocument(source)
	if err != nil {
		return "", false
	}
	raw, ok := doc.Get(ReservedUIDKey)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	parsed, err := uuid.Parse(s)
	if err != nil || parsed.Version() != 4 {
		return "", false
	}
	return parsed.String(), true
}

// EnsureUID returns file's existing UID, or generates a fresh v4 UUID,
// atomically rewrites the file's frontmatter to include it (preserving all
// other keys and the body byte-for-byte), and returns the new UID.
func (s *Store) EnsureUID(vaultPath fsstore.VaultPath) (string, error) {
	source, err := s.fs.ReadText(vaultPath)
	if err != nil {
		return "", errkind.New(errkind.NotFound, "read note for uid assignment", err).WithPath(string(vaultPath))
	}

	doc, err := ParseDocument([]byte(source))
	if err != nil {
		return "", errkind.New(errkind.YamlParseError, "frontmatter corrupt", err).WithPath(string(vaultPath))
	}

	if existing, ok := TryGetUID([]byte(source)); ok {
		return existing, nil
	}

	newUID := uuid.New().String()
	doc.Set(ReservedUIDKey, newUID)

	if err := s.fs.WriteTextAtomic(vaultPath, string(Encode(doc))); err != nil {
		return "", errkind.New(errkind.DbPersistFailed, "write uid frontmatter", err).WithPath(string(vaultPath))
	}
	return newUID, nil
}

// AssignNewID overwrites file's UID with a fresh one, used by collision
// resolution (spec.md §4.1).
func (s *Store) AssignNewID(vaultPath fsstore.VaultPath) (string, error) {
	source, err := s.fs.ReadText(vaultPath)
	if err != nil {
		return "", errkind.New(errkind.NotFound, "read note for uid reassignment", err).WithPath(string(vaultPath))
	}
	doc, err := ParseDocument([]byte(source))
	if err != nil {
		return "", errkind.New(errkind.YamlParseError, "frontmatter corrupt", err).WithPath(string(vaultPath))
	}

	newUID := uuid.New().String()
	doc.Set(ReservedUIDKey, newUID)

	if err := s.fs.WriteTextAtomic(vaultPath, string(Encode(doc))); err != nil {
		return "", errkind.New(errkind.DbPersistFailed, "write reassigned uid", err).WithPath(string(vaultPath))
	}
	return newUID, nil
}
