package uid

import (
	"context"
	"sort"

	"github.com/kohlsync/core/internal/errkind"
	"github.com/kohlsync/core/internal/fsstore"
)

// CollisionGroup is a set of notes found sharing the same kohl-uid value
// (spec.md §4.1: this can happen when a user copies a note file on disk,
// carrying the frontmatter with it).
type CollisionGroup struct {
	UID      string
	Keep     fsstore.VaultPath
	Reassign []fsstore.VaultPath
}

// ResolveCollisions scans folder recursively for Markdown notes, groups them
// by kohl-uid, and for every group larger than one assigns a fresh UID to
// every member but the earliest (by modification time, ties broken by the
// lexicographically smaller vault path). The earliest keeps its UID and
// baseline snapshot untouched. Returns the groups it acted on, so the caller
// can log what changed.
func (s *Store) ResolveCollisions(ctx context.Context, folder fsstore.VaultPath) ([]CollisionGroup, error) {
	listing, err := s.fs.ListFiles(ctx, folder, fsstore.ListOptions{Extensions: []string{"md"}, Recursive: true})
	if err != nil {
		return nil, err
	}

	byUID := make(map[string][]fsstore.VaultPath)
	for _, path := range listing.Files {
		if ctx.Err() != nil {
			return nil, errkind.WrapContext(ctx.Err())
		}
		source, err := s.fs.ReadText(path)
		if err != nil {
			continue
		}
		uid, ok := TryGetUID([]byte(source))
		if !ok {
			continue
		}
		byUID[uid] = append(byUID[uid], path)
	}

	var groups []CollisionGroup
	for uid, paths := range byUID {
		if len(paths) < 2 {
			continue
		}
		keep, rest, err := s.pickSurvivor(paths)
		if err != nil {
			return nil, err
		}
		group := CollisionGroup{UID: uid, Keep: keep}
		for _, p := range rest {
			if _, err := s.AssignNewID(p); err != nil {
				return nil, err
			}
			group.Reassign = append(group.Reassign, p)
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].UID < groups[j].UID })
	return groups, nil
}

// pickSurvivor returns the earliest-modified path (ties broken
// lexicographically) and the remaining paths in deterministic order.
func (s *Store) pickSurvivor(paths []fsstore.VaultPath) (fsstore.VaultPath, []fsstore.VaultPath, error) {
	sorted := append([]fsstore.VaultPath(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	survivor := sorted[0]
	survivorTime, err := s.fs.ModTime(survivor)
	if err != nil {
		return "", nil, err
	}
	for _, candidate := range sorted[1:] {
		t, err := s.fs.ModTime(candidate)
		if err != nil {
			return "", nil, err
		}
		if t.Before(survivorTime) {
			survivor, survivorTime = candidate, t
		}
	}

	var rest []fsstore.VaultPath
	for _, p := range sorted {
		if p != survivor {
			rest = append(rest, p)
		}
	}
	return survivor, rest, nil
}
