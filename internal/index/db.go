package index

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kohlsync/core/internal/errkind"
)

// DB wraps a *bun.DB with the single-writer/many-reader discipline spec.md
// §5 requires: "the index exposes read(fn) and write_tx(fn) entry points;
// writes are wrapped in SAVEPOINTs to support nested transactions... readers
// do not block one another; a writer drains pending readers on a scheduling
// boundary before starting its transaction." A sync.RWMutex gives exactly
// that shape: readers take RLock concurrently, a writer takes the exclusive
// Lock and waits for in-flight readers to finish first, grounded on the
// single-mutex-guarded *sql.DB pattern in the statelessagent store example
// (store/db.go) adapted to bun's RunInTx.
type DB struct {
	bun *bun.DB
	sql *sql.DB
	mu  sync.RWMutex
}

// Open opens (creating if absent) a SQLite-backed index at path, using the
// same journal/synchronous/busy-timeout pragmas as the pack's sqlite-vec
// store example, and runs pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1"
	return open(ctx, dsn)
}

// OpenMemory opens an in-memory index for tests, with a single pooled
// connection so the in-memory database isn't lost between connections.
func OpenMemory(ctx context.Context) (*DB, error) {
	db, err := open(ctx, "file::memory:?cache=shared&_foreign_keys=1")
	if err != nil {
		return nil, err
	}
	db.sql.SetMaxOpenConns(1)
	return db, nil
}

func open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errkind.New(errkind.DbOpenFailed, "open sqlite database", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errkind.New(errkind.DbOpenFailed, "ping sqlite database", err)
	}

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	d := &DB{bun: bunDB, sql: sqlDB}

	if err := d.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Bun returns the wrapped *bun.DB for repository construction.
func (d *DB) Bun() *bun.DB {
	return d.bun
}

// Read runs fn with a shared read lock; concurrent Read calls never block
// each other (spec.md §5).
func (d *DB) Read(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if err := ctx.Err(); err != nil {
		return errkind.WrapContext(err)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := fn(ctx, d.bun); err != nil {
		return errkind.New(errkind.DbOperationFailed, "read index", err)
	}
	return nil
}

// WriteTx runs fn inside a single write transaction, holding the exclusive
// lock for its duration so it drains (and then blocks) readers, satisfying
// the "single writer" half of spec.md §5.
func (d *DB) WriteTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return errkind.WrapContext(err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		return errkind.New(errkind.DbPersistFailed, "write index", err)
	}
	return nil
}

// WithSavepoint nests a logical sub-transaction inside an already-open write
// transaction, rolling back only the sub-transaction's work on error instead
// of the whole batch (spec.md §4.4's migration runner and §5's "writes are
// wrapped in SAVEPOINTs to support nested transactions").
func WithSavepoint(ctx context.Context, tx bun.Tx, name string, fn func(ctx context.Context) error) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SAVEPOINT %s", name)); err != nil {
		return errkind.New(errkind.DbOperationFailed, "create savepoint "+name, err)
	}
	if err := fn(ctx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", name)); rbErr != nil {
			return errkind.New(errkind.DbOperationFailed, "rollback savepoint "+name, rbErr)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("RELEASE SAVEPOINT %s", name)); err != nil {
		return errkind.New(errkind.DbOperationFailed, "release savepoint "+name, err)
	}
	return nil
}
