// Package fsstore implements the Filesystem Service (spec.md §4.7): atomic
// writes, directory listing with an LRU scan cache, plugin-data JSON
// persistence, and capability probing.
package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kohlsync/core/internal/errkind"
)

// VaultPath is a forward-slash, vault-root-relative path (spec.md §3). It is
// a distinct type from SystemPath to forbid implicit conversion.
type VaultPath string

// SystemPath is an absolute OS path, forward-slash canonical internally.
type SystemPath string

// Service is the Filesystem Service described in spec.md §4.7. All paths it
// accepts as VaultPath are resolved against root.
type Service struct {
	root     SystemPath
	pluginMu sync.Mutex
	listMu   sync.Mutex
	listLRU  *listCache
	caps     Capabilities
}

// NewService constructs a Service rooted at vaultRoot, with its own plugin
// data directory at pluginDataDir.
func NewService(vaultRoot, pluginDataDir SystemPath) *Service {
	return &Service{
		root:    vaultRoot,
		listLRU: newListCache(32),
		caps:    Probe(string(pluginDataDir)),
	}
}

// Capabilities returns the capability probe result.
func (s *Service) Capabilities() Capabilities { return s.caps }

func (s *Service) resolve(p VaultPath) string {
	clean := strings.Trim(filepath.ToSlash(string(p)), "/")
	return filepath.Join(string(s.root), filepath.FromSlash(clean))
}

// ReadText reads the file at vaultPath relative to the vault root.
func (s *Service) ReadText(vaultPath VaultPath) (string, error) {
	data, err := os.ReadFile(s.resolve(vaultPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errkind.New(errkind.NotFound, "read text", err).WithPath(string(vaultPath))
		}
		return "", errkind.New(errkind.PermissionDenied, "read text", err).WithPath(string(vaultPath))
	}
	return string(data), nil
}

// Exists reports whether vaultPath refers to a file already on disk, used
// by generate_unique_stem's exists_check (spec.md §4.8).
func (s *Service) Exists(vaultPath VaultPath) bool {
	_, err := os.Stat(s.resolve(vaultPath))
	return err == nil
}

// ModTime returns the last-modified time of the file at vaultPath, used by
// collision resolution to pick which of several same-UID notes is the
// original (spec.md §4.1).
func (s *Service) ModTime(vaultPath VaultPath) (time.Time, error) {
	info, err := os.Stat(s.resolve(vaultPath))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, errkind.New(errkind.NotFound, "stat note", err).WithPath(string(vaultPath))
		}
		return time.Time{}, errkind.New(errkind.PermissionDenied, "stat note", err).WithPath(string(vaultPath))
	}
	return info.ModTime(), nil
}

// EnsureParentDir creates the parent directory of vaultPath if missing.
func (s *Service) EnsureParentDir(vaultPath VaultPath) error {
	dir := filepath.Dir(s.resolve(vaultPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errkind.New(errkind.PermissionDenied, "ensure parent dir", err).WithPath(string(vaultPath))
	}
	return nil
}

// WriteTextAtomic writes content to vaultPath via temp-write + rename,
// creating the parent directory first.
func (s *Service) WriteTextAtomic(vaultPath VaultPath, content string) error {
	if err := s.EnsureParentDir(vaultPath); err != nil {
		return err
	}
	if err := writeFileAtomic(s.resolve(vaultPath), content); err != nil {
		return errkind.New(errkind.DbPersistFailed, "write text atomic", err).WithPath(string(vaultPath))
	}
	s.invalidateListingsUnder(vaultPath)
	return nil
}

// ListOptions configures ListFiles scans.
type ListOptions struct {
	Extensions []string // lowercased, no leading dot; empty means all
	Recursive  bool
}

// ListResult is the outcome of a directory scan: the matching files plus any
// non-fatal diagnostics (e.g. unreadable subdirectories) encountered along
// the way.
type ListResult struct {
	Files       []VaultPath
	Diagnostics []string
}

// ListFiles scans folder for files matching opts, memoizing results per
// (folder, extensions, recursive) to amortize repeated scans within a single
// import, per spec.md §4.7.
func (s *Service) ListFiles(ctx context.Context, folder VaultPath, opts ListOptions) (*ListResult, error) {
	key := listCacheKey(folder, opts)

	s.listMu.Lock()
	if cached, ok := s.listLRU.get(key); ok {
		s.listMu.Unlock()
		return cached, nil
	}
	s.listMu.Unlock()

	result, err := s.scan(ctx, folder, opts)
	if err != nil {
		return nil, err
	}

	s.listMu.Lock()
	s.listLRU.put(key, folder, result)
	s.listMu.Unlock()
	return result, nil
}

func (s *Service) scan(ctx context.Context, folder VaultPath, opts ListOptions) (*ListResult, error) {
	root := s.resolve(folder)
	result := &ListResult{}

	allowed := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	walk := func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, err.Error())
			return nil
		}
		if d.IsDir() {
			if path != root && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if len(allowed) > 0 {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if !allowed[ext] {
				return nil
			}
		}
		rel, err := filepath.Rel(string(s.root), path)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, err.Error())
			return nil
		}
		result.Files = append(result.Files, VaultPath(filepath.ToSlash(rel)))
		return nil
	}

	if err := filepath.WalkDir(root, walk); err != nil {
		if ctx.Err() != nil {
			return nil, errkind.WrapContext(ctx.Err())
		}
		if !os.IsNotExist(err) {
			return nil, errkind.New(errkind.PermissionDenied, "list files", err).WithPath(string(folder))
		}
	}
	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i] < result.Files[j] })
	return result, nil
}

func (s *Service) invalidateListingsUnder(vaultPath VaultPath) {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	s.listLRU.invalidatePrefix(vaultPath)
}

// PluginDataPath returns the plugin's private data directory joined with
// sub (e.g. "snapshots", "data.json").
func (s *Service) PluginDataPath(pluginDataDir SystemPath, sub string) SystemPath {
	return SystemPath(filepath.Join(string(pluginDataDir), sub))
}
