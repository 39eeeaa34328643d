package duplicate

import (
	"context"
	"strings"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/pathutil"
	"github.com/kohlsync/core/internal/uid"
)

// Candidate is one existing note that might already represent the same
// book as an incoming import.
type Candidate struct {
	Path   fsstore.VaultPath
	UID    string
	Source string // "index", "filename", or "uid"
}

// Finder locates candidate existing notes for a NormalizedBook, per the
// union described in spec.md §4.5.
type Finder struct {
	Index            *index.Store
	UIDs             *uid.Store
	FS               *fsstore.Service
	HighlightsFolder fsstore.VaultPath
}

// Find returns the union of index hits, filename-heuristic hits, and (if
// deviceUID is non-empty) the UID hit, de-duplicated by path.
func (f *Finder) Find(ctx context.Context, nb book.NormalizedBook, deviceUID string) ([]Candidate, error) {
	seen := make(map[fsstore.VaultPath]*Candidate)
	add := func(path fsstore.VaultPath, source string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = &Candidate{Path: path, Source: source}
	}

	key := book.ComputeKey(nb)
	paths, err := f.Index.FindPathsByKey(ctx, string(key))
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		add(fsstore.VaultPath(p), "index")
	}

	heuristicHits, err := f.filenameHeuristicHits(ctx, nb)
	if err != nil {
		return nil, err
	}
	for _, p := range heuristicHits {
		add(p, "filename")
	}

	if deviceUID != "" {
		if path, ok, err := f.UIDs.FindPathByUID(ctx, f.HighlightsFolder, deviceUID); err != nil {
			return nil, err
		} else if ok {
			add(path, "uid")
		}
	}

	out := make([]Candidate, 0, len(seen))
	for _, c := range seen {
		if c.UID == "" {
			if source, err := f.FS.ReadText(c.Path); err == nil {
				if foundUID, ok := uid.TryGetUID([]byte(source)); ok {
					c.UID = foundUID
				}
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

// filenameHeuristicHits matches the highlights folder's file stems against
// the match-keys of title, authors, "<title> <authors>", and the "<X> - <Y>"
// permutations (spec.md §4.5).
func (f *Finder) filenameHeuristicHits(ctx context.Context, nb book.NormalizedBook) ([]fsstore.VaultPath, error) {
	candidates := heuristicMatchKeys(nb)
	if len(candidates) == 0 {
		return nil, nil
	}

	listing, err := f.FS.ListFiles(ctx, f.HighlightsFolder, fsstore.ListOptions{Extensions: []string{"md"}, Recursive: true})
	if err != nil {
		return nil, err
	}

	var hits []fsstore.VaultPath
	for _, path := range listing.Files {
		stem := stemOf(string(path))
		stemKey := pathutil.ToMatchKey(stem)
		if candidates[stemKey] {
			hits = append(hits, path)
		}
	}
	return hits, nil
}

func heuristicMatchKeys(nb book.NormalizedBook) map[string]bool {
	title := strings.TrimSpace(nb.Title)
	authors := strings.TrimSpace(strings.Join(nb.Authors, " "))
	keys := make(map[string]bool)
	addIfNonEmpty := func(s string) {
		if s == "" {
			return
		}
		keys[pathutil.ToMatchKey(s)] = true
	}

	addIfNonEmpty(title)
	addIfNonEmpty(authors)
	addIfNonEmpty(title + " " + authors)
	addIfNonEmpty(title + " - " + authors)
	addIfNonEmpty(authors + " - " + title)
	return keys
}

func stemOf(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	return base
}
