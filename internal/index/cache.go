package index

import (
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	repository "github.com/goliatone/go-repository-bun"
)

// CachedRepositories bundles the three repositories wrapped with a shared
// read cache, mirroring the teacher's configureCacheDefaults/
// NewBunContentRepositoryWithCache pairing (internal/di/container.go,
// internal/content/bun_repository.go). Index reads are cheap single-row
// lookups by natural key, which is exactly go-repository-cache's sweet spot;
// writes still go through Store/DB directly so they keep the savepoint and
// single-writer discipline spec.md §5 requires.
type CachedRepositories struct {
	Books         repository.Repository[*Book]
	BookInstances repository.Repository[*BookInstance]
	ImportSources repository.Repository[*ImportSource]
}

// NewCachedRepositories builds cache-wrapped repositories with the given
// TTL. Pass a zero ttl to use the cache package's own default.
func NewCachedRepositories(db *bun.DB, ttl time.Duration) (*CachedRepositories, error) {
	cfg := repocache.DefaultConfig()
	if ttl > 0 {
		cfg.TTL = ttl
	}
	service, err := repocache.NewCacheService(cfg)
	if err != nil {
		return nil, err
	}
	serializer := repocache.NewDefaultKeySerializer()

	return &CachedRepositories{
		Books:         wrapWithCache(NewBookRepository(db), service, serializer),
		BookInstances: wrapWithCache(NewBookInstanceRepository(db), service, serializer),
		ImportSources: wrapWithCache(NewImportSourceRepository(db), service, serializer),
	}, nil
}
