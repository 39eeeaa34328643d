package logging

import (
	"context"
	"strings"

	"github.com/kohlsync/core/pkg/interfaces"
)

const (
	rootModule     = "kohl"
	uidModule      = "kohl.uid"
	bookModule     = "kohl.book"
	mergeModule    = "kohl.merge"
	indexModule    = "kohl.index"
	plannerModule  = "kohl.planner"
	executorModule = "kohl.executor"
	fsstoreModule  = "kohl.fsstore"
	migrateModule  = "kohl.migrate"
)

const (
	fieldBookKey    = "book_key"
	fieldVaultPath  = "vault_path"
	fieldUID        = "uid"
	fieldPlanAction = "plan_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// UIDLogger returns the logger namespace reserved for the note identity and
// snapshot store.
func UIDLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, uidModule)
}

// BookLogger returns the logger namespace reserved for metadata
// normalization.
func BookLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, bookModule)
}

// MergeLogger returns the logger namespace reserved for the merge engine.
func MergeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, mergeModule)
}

// IndexLogger returns the logger namespace reserved for the local index.
func IndexLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, indexModule)
}

// PlannerLogger returns the logger namespace reserved for the import
// planner.
func PlannerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, plannerModule)
}

// ExecutorLogger returns the logger namespace reserved for the import
// executor.
func ExecutorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, executorModule)
}

// FSStoreLogger returns the logger namespace reserved for the filesystem
// service.
func FSStoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, fsstoreModule)
}

// MigrateLogger returns the logger namespace reserved for plugin-data
// migrations.
func MigrateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, migrateModule)
}

// WithPlanItemContext enriches the provided logger with common import
// fields: book key, vault path, device UID hint, and plan action. Empty
// values are ignored.
func WithPlanItemContext(logger interfaces.Logger, bookKey, vaultPath, uid, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(bookKey); trimmed != "" {
		fields[fieldBookKey] = trimmed
	}
	if trimmed := strings.TrimSpace(vaultPath); trimmed != "" {
		fields[fieldVaultPath] = trimmed
	}
	if trimmed := strings.TrimSpace(uid); trimmed != "" {
		fields[fieldUID] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldPlanAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
