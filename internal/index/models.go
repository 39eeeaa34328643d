// Package index implements the Local Index (spec.md §4.4): a durable
// relational store over book/book_instance/import_source, opened with a
// single-writer/many-reader discipline (spec.md §5) through
// github.com/uptrace/bun, the way the teacher's internal/content package
// wraps github.com/goliatone/go-repository-bun repositories around bun
// models.
package index

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Book is the canonical row for one logical book, keyed by its BookKey
// (spec.md §3, §4.4). ID is a synthetic surrogate so the row can be wrapped
// by github.com/goliatone/go-repository-bun the way the teacher's Content
// model carries both a surrogate ID and a natural Slug identifier.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:bk"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Key       string    `bun:"key,notnull,unique" json:"key"`
	DeviceID  *string   `bun:"device_id" json:"device_id,omitempty"`
	Title     string    `bun:"title,notnull" json:"title"`
	Authors   string    `bun:"authors" json:"authors"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BookInstance records one on-disk note file for a Book (spec.md §4.4). The
// natural key is VaultPath; ID is a surrogate for the same reason as Book.
type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	VaultPath string    `bun:"vault_path,notnull,unique" json:"vault_path"`
	BookKey   string    `bun:"book_key,notnull" json:"book_key"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Book *Book `bun:"rel:belongs-to,join:book_key=key" json:"book,omitempty"`
}

// ImportSource tracks one device-side source file's last processed state,
// letting the planner skip sources whose (mtime, size, newest annotation
// timestamp) are unchanged since the last successful import (spec.md §4.4,
// §4.5).
type ImportSource struct {
	bun.BaseModel `bun:"table:import_sources,alias:is"`

	ID                 uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	SourcePath         string     `bun:"source_path,notnull,unique" json:"source_path"`
	LastProcessedMtime int64      `bun:"last_processed_mtime" json:"last_processed_mtime"`
	LastProcessedSize  int64      `bun:"last_processed_size" json:"last_processed_size"`
	NewestAnnotationTS *int64     `bun:"newest_annotation_ts" json:"newest_annotation_ts,omitempty"`
	LastSuccessTS      *time.Time `bun:"last_success_ts" json:"last_success_ts,omitempty"`
	LastError          *string    `bun:"last_error" json:"last_error,omitempty"`
	BookKey            *string    `bun:"book_key" json:"book_key,omitempty"`
	MD5                *string    `bun:"md5" json:"md5,omitempty"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// SchemaMigration records one applied migration ID, the durable half of the
// "registered, ordered migrations" mechanism in spec.md §4.4.
type SchemaMigration struct {
	bun.BaseModel `bun:"table:schema_migrations,alias:sm"`

	ID        string    `bun:"id,pk" json:"id"`
	AppliedAt time.Time `bun:"applied_at,nullzero,default:current_timestamp" json:"applied_at"`
}
