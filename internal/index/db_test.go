package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestWithSavepointRollsBackOnlySubTransaction(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	err = db.WriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := insertBook(ctx, tx, "kept"); err != nil {
			return err
		}
		spErr := WithSavepoint(ctx, tx, "sp1", func(ctx context.Context) error {
			if err := insertBook(ctx, tx, "rolled-back"); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.Error(t, spErr)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, bookExists(t, db, "kept"))
	assert.False(t, bookExists(t, db, "rolled-back"))
}

func bookExists(t *testing.T, db *DB, key string) bool {
	t.Helper()
	var books []Book
	err := db.Read(context.Background(), func(ctx context.Context, idb bun.IDB) error {
		return idb.NewSelect().Model(&books).Where("key = ?", key).Scan(ctx)
	})
	require.NoError(t, err)
	return len(books) == 1
}

func TestReadDoesNotErrorWithNoWriters(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	defer db.Close()

	err = db.Read(context.Background(), func(ctx context.Context, idb bun.IDB) error {
		_, countErr := idb.NewSelect().Model((*Book)(nil)).Count(ctx)
		return countErr
	})
	assert.NoError(t, err)
}

func insertBook(ctx context.Context, tx bun.Tx, key string) error {
	_, err := tx.NewInsert().Model(&Book{Key: key}).Exec(ctx)
	return err
}
