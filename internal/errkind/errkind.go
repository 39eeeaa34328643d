// Package errkind gives the structured error taxonomy of spec.md §7 concrete
// Go types, built on github.com/goliatone/go-errors the way the teacher's
// internal/commands/errors.go wraps it for command execution.
package errkind

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Kind names one member of the spec.md §7 error taxonomy.
type Kind string

const (
	NotFound             Kind = "NOT_FOUND"
	PermissionDenied     Kind = "PERMISSION_DENIED"
	YamlParseError       Kind = "YAML_PARSE_ERROR"
	LuaParseError        Kind = "LUA_PARSE_ERROR"
	DbOpenFailed         Kind = "DB_OPEN_FAILED"
	DbPersistFailed      Kind = "DB_PERSIST_FAILED"
	DbValidateFailed     Kind = "DB_VALIDATE_FAILED"
	DbOperationFailed    Kind = "DB_OPERATION_FAILED"
	CapabilityUnavail    Kind = "CAPABILITY_UNAVAILABLE"
	Cancelled            Kind = "CANCELLED"
	SnapshotNotFound     Kind = "SNAPSHOT_NOT_FOUND"
	SnapshotReadFailed   Kind = "SNAPSHOT_READ_FAILED"
	SnapshotWriteFailed  Kind = "SNAPSHOT_WRITE_FAILED"
	SnapshotIntegrity    Kind = "SNAPSHOT_INTEGRITY_FAILED"
	SnapshotUIDMissing   Kind = "SNAPSHOT_UID_MISSING"
	SnapshotUIDMismatch  Kind = "SNAPSHOT_UID_MISMATCH"
	SnapshotCapability   Kind = "SNAPSHOT_CAPABILITY_UNAVAILABLE"
	SnapshotTargetGone   Kind = "SNAPSHOT_TARGET_FILE_MISSING"
	SnapshotMigrateFail  Kind = "SNAPSHOT_MIGRATION_FAILED"
	SettingsInvalid      Kind = "SETTINGS_INVALID"
	MigrationFailed      Kind = "MIGRATION_FAILED"
	CommandInvalid       Kind = "COMMAND_INVALID"
)

// Error is a structured failure carrying a Kind, a path when relevant, and
// an optional wrapped cause. It carries no go-errors category by itself;
// Wrap lifts it into a go-errors error tagged with its Kind's Category, for
// callers that only know about go-errors.
type Error struct {
	Kind  Kind
	Path  string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Kind, e.Msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, target) match when target is an *Error of the same
// Kind, such as a sentinel constructed via New(kind, "", nil).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs a structured Error for the given kind. It attaches no
// go-errors category; pass the result to Wrap for that.
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// WithPath attaches the path the failure occurred on.
func (e *Error) WithPath(path string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Path = path
	return &clone
}

// Category maps a Kind onto the closest goerrors.Category, preserving the
// category-based dispatch pattern the teacher uses in mapRepositoryError
// (internal/content/bun_repository.go).
func (k Kind) Category() goerrors.Category {
	switch k {
	case NotFound, SnapshotNotFound:
		return goerrors.CategoryNotFound
	case PermissionDenied:
		return goerrors.CategoryAuthorization
	case YamlParseError, LuaParseError, SettingsInvalid, CommandInvalid:
		return goerrors.CategoryValidation
	case DbOpenFailed, DbPersistFailed, DbValidateFailed, DbOperationFailed, MigrationFailed:
		return goerrors.CategoryInternal
	case Cancelled:
		return goerrors.CategoryCommand
	default:
		return goerrors.CategoryInternal
	}
}

// Wrap lifts an Error into a goerrors-wrapped error carrying a text code
// equal to the Kind, mirroring commands.WrapExecuteError.
func Wrap(e *Error) error {
	if e == nil {
		return nil
	}
	return goerrors.Wrap(e, e.Kind.Category(), e.Msg).WithTextCode(string(e.Kind))
}

// WrapContext normalizes a context error (Canceled/DeadlineExceeded) into a
// Cancelled Error, mirroring commands.WrapContextError.
func WrapContext(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case context.Canceled, context.DeadlineExceeded:
		return New(Cancelled, "operation cancelled", err)
	default:
		return err
	}
}

// IsKind reports whether err (or something it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	for err != nil {
		if candidate, ok := err.(*Error); ok {
			e = candidate
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return e != nil && e.Kind == k
}
