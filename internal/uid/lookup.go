package uid

import (
	"context"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
)

// FindPathByUID scans folder recursively for the note carrying targetUID in
// its frontmatter, used by the duplicate finder's "UID hint" candidate
// source (spec.md §4.5: "UID hits (if the device-side record carries a
// stored UID; optional)"). Returns ("", false) if no note carries it.
func (s *Store) FindPathByUID(ctx context.Context, folder fsstore.VaultPath, targetUID string) (fsstore.VaultPath, bool, error) {
	listing, err := s.fs.ListFiles(ctx, folder, fsstore.ListOptions{Extensions: []string{"md"}, Recursive: true})
	if err != nil {
		return "", false, err
	}
	for _, path := range listing.Files {
		if ctx.Err() != nil {
			return "", false, errkind.WrapContext(ctx.Err())
		}
		source, err := s.fs.ReadText(path)
		if err != nil {
			continue
		}
		if foundUID, ok := TryGetUID([]byte(source)); ok && foundUID == targetUID {
			return path, true, nil
		}
	}
	return "", false, nil
}
