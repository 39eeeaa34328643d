package index

import (
	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/uptrace/bun"
)

// NewBookRepository builds a go-repository-bun repository over Book, keyed
// by its surrogate ID with "key" as the natural identifier, mirroring the
// teacher's NewContentRepository (internal/content/repository.go).
func NewBookRepository(db *bun.DB) repository.Repository[*Book] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Book]{
		NewRecord: func() *Book { return &Book{} },
		GetID:     func(b *Book) uuid.UUID { return b.ID },
		SetID:     func(b *Book, id uuid.UUID) { b.ID = id },
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(b *Book) string { return b.Key },
	})
}

// NewBookInstanceRepository builds a repository over BookInstance keyed by
// VaultPath as the natural identifier.
func NewBookInstanceRepository(db *bun.DB) repository.Repository[*BookInstance] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*BookInstance]{
		NewRecord: func() *BookInstance { return &BookInstance{} },
		GetID:     func(bi *BookInstance) uuid.UUID { return bi.ID },
		SetID:     func(bi *BookInstance, id uuid.UUID) { bi.ID = id },
		GetIdentifier: func() string {
			return "vault_path"
		},
		GetIdentifierValue: func(bi *BookInstance) string { return bi.VaultPath },
	})
}

// NewImportSourceRepository builds a repository over ImportSource keyed by
// SourcePath as the natural identifier.
func NewImportSourceRepository(db *bun.DB) repository.Repository[*ImportSource] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ImportSource]{
		NewRecord: func() *ImportSource { return &ImportSource{} },
		GetID:     func(s *ImportSource) uuid.UUID { return s.ID },
		SetID:     func(s *ImportSource, id uuid.UUID) { s.ID = id },
		GetIdentifier: func() string {
			return "source_path"
		},
		GetIdentifierValue: func(s *ImportSource) string { return s.SourcePath },
	})
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
