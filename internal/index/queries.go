package index

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store is the query surface spec.md §4.4 exposes to the rest of the core,
// built directly on the wrapped *DB rather than on the repository layer for
// the multi-row batch operations (rename_file/rename_folder), the way the
// teacher's BunContentRepository drops to raw tx.NewUpdate/tx.NewDelete for
// operations the generic repository.Repository[T] doesn't model.
type Store struct {
	db *DB
}

// NewStore wraps an opened DB.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// FindKeyByPath returns the BookKey indexed for vaultPath, if any.
func (s *Store) FindKeyByPath(ctx context.Context, vaultPath string) (string, bool, error) {
	var instance BookInstance
	var key string
	err := s.db.Read(ctx, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(&instance).Where("vault_path = ?", vaultPath).Scan(ctx)
	})
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	key = instance.BookKey
	return key, true, nil
}

// FindPathsByKey returns every vault path indexed under bookKey.
func (s *Store) FindPathsByKey(ctx context.Context, bookKey string) ([]string, error) {
	var instances []BookInstance
	err := s.db.Read(ctx, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(&instances).Where("book_key = ?", bookKey).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(instances))
	for i, inst := range instances {
		paths[i] = inst.VaultPath
	}
	return paths, nil
}

// BookRow is the input to UpsertBook: the book_key is the natural identity
// and everything else is best-effort metadata for the rest of the core to
// read back without re-parsing frontmatter.
type BookRow struct {
	Key      string
	DeviceID *string
	Title    string
	Authors  string
}

// UpsertBook upserts the book row and, if vaultPath is non-empty, the
// instance row too, inside one transaction (spec.md §4.4).
func (s *Store) UpsertBook(ctx context.Context, row BookRow, vaultPath string) error {
	return s.db.WriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		book := &Book{
			ID:        uuid.New(),
			Key:       row.Key,
			DeviceID:  row.DeviceID,
			Title:     row.Title,
			Authors:   row.Authors,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NewInsert().
			Model(book).
			On("CONFLICT (key) DO UPDATE").
			Set("device_id = EXCLUDED.device_id").
			Set("title = EXCLUDED.title").
			Set("authors = EXCLUDED.authors").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return err
		}

		if vaultPath == "" {
			return nil
		}
		instance := &BookInstance{
			ID:        uuid.New(),
			VaultPath: vaultPath,
			BookKey:   row.Key,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := tx.NewInsert().
			Model(instance).
			On("CONFLICT (vault_path) DO UPDATE").
			Set("book_key = EXCLUDED.book_key").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

// DeleteInstanceByPath removes the instance row for vaultPath, leaving the
// Book row (and any other instances of the same key) untouched.
func (s *Store) DeleteInstanceByPath(ctx context.Context, vaultPath string) error {
	return s.db.WriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*BookInstance)(nil)).Where("vault_path = ?", vaultPath).Exec(ctx)
		return err
	})
}

// RenameFile rewrites the vault_path of the single instance at oldPath.
func (s *Store) RenameFile(ctx context.Context, oldPath, newPath string) error {
	return s.db.WriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*BookInstance)(nil)).
			Set("vault_path = ?", newPath).
			Set("updated_at = ?", time.Now().UTC()).
			Where("vault_path = ?", oldPath).
			Exec(ctx)
		return err
	})
}

// RenameFolder batch-rewrites every instance whose vault_path is prefixed by
// oldPrefix + "/" to the same path under newPrefix (spec.md §4.4).
func (s *Store) RenameFolder(ctx context.Context, oldPrefix, newPrefix string) error {
	return s.db.WriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var instances []BookInstance
		if err := tx.NewSelect().Model(&instances).Where("vault_path LIKE ?", oldPrefix+"/%").Scan(ctx); err != nil {
			return err
		}
		for _, inst := range instances {
			rewritten := newPrefix + inst.VaultPath[len(oldPrefix):]
			if _, err := tx.NewUpdate().
				Model((*BookInstance)(nil)).
				Set("vault_path = ?", rewritten).
				Set("updated_at = ?", time.Now().UTC()).
				Where("vault_path = ?", inst.VaultPath).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertImportSource writes or refreshes the last-processed state for a
// device-side source file (spec.md §4.4, §4.6 step 8).
func (s *Store) UpsertImportSource(ctx context.Context, row ImportSource) error {
	return s.db.WriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		row.UpdatedAt = time.Now().UTC()
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		_, err := tx.NewInsert().
			Model(&row).
			On("CONFLICT (source_path) DO UPDATE").
			Set("last_processed_mtime = EXCLUDED.last_processed_mtime").
			Set("last_processed_size = EXCLUDED.last_processed_size").
			Set("newest_annotation_ts = EXCLUDED.newest_annotation_ts").
			Set("last_success_ts = EXCLUDED.last_success_ts").
			Set("last_error = EXCLUDED.last_error").
			Set("book_key = EXCLUDED.book_key").
			Set("md5 = EXCLUDED.md5").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

// GetImportSource returns the last-processed state for sourcePath, if any.
func (s *Store) GetImportSource(ctx context.Context, sourcePath string) (*ImportSource, bool, error) {
	var row ImportSource
	err := s.db.Read(ctx, func(ctx context.Context, db bun.IDB) error {
		return db.NewSelect().Model(&row).Where("source_path = ?", sourcePath).Scan(ctx)
	})
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &row, true, nil
}

func isNoRows(err error) bool {
	unwrapped := err
	for unwrapped != nil {
		if unwrapped == sql.ErrNoRows {
			return true
		}
		u, ok := unwrapped.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		unwrapped = u.Unwrap()
	}
	return false
}
