// Package kohlsync wires the note-identity store, merge engine, local index,
// and import planner/executor into the statically constructed composition
// root spec.md §9 describes: one App value built from Settings, with no
// runtime dependency-injection container between it and its collaborators.
package kohlsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kohlsync/core/internal/book"
	"github.com/kohlsync/core/internal/duplicate"
	"github.com/kohlsync/core/internal/executor"
	"github.com/kohlsync/core/internal/fsstore"
	"github.com/kohlsync/core/internal/index"
	"github.com/kohlsync/core/internal/logging/console"
	"github.com/kohlsync/core/internal/logging/golog"
	"github.com/kohlsync/core/internal/merge"
	"github.com/kohlsync/core/internal/migrate"
	"github.com/kohlsync/core/internal/planner"
	"github.com/kohlsync/core/internal/settings"
	"github.com/kohlsync/core/internal/uid"
	"github.com/kohlsync/core/pkg/interfaces"
)

// App is every collaborator the import pipeline needs, assembled once at
// startup and shared by the CLI commands.
type App struct {
	Settings settings.Settings
	Logger   interfaces.LoggerProvider

	FS       *fsstore.Service
	UIDs     *uid.Store
	IndexDB  *index.DB
	Index    *index.Store
	Finder   *duplicate.Finder
	Planner  *planner.Planner
	Executor *executor.Executor
	Migrate  *migrate.Runner

	pluginDataDir fsstore.SystemPath
	logFile       *os.File
}

// Paths locates the vault and the plugin's private data directory on disk,
// the two roots every other path is resolved against.
type Paths struct {
	VaultRoot     string
	PluginDataDir string
}

// Open loads settings from raw (nil for defaults), validates them, and wires
// every collaborator against the given paths. It does not touch the
// migration-data file or run migrations; callers do that explicitly via
// migrate.Load/Save against App.Migrate and App.MigrateDataPath().
func Open(ctx context.Context, paths Paths, rawSettings map[string]any) (*App, error) {
	cfg, err := settings.Load(rawSettings)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, logFile, err := newLoggerProvider(cfg, paths)
	if err != nil {
		return nil, fmt.Errorf("kohlsync: building logger: %w", err)
	}

	fs := fsstore.NewService(fsstore.SystemPath(paths.VaultRoot), fsstore.SystemPath(paths.PluginDataDir))
	uidStore := uid.NewStore(fs, fsstore.SystemPath(filepath.Join(paths.PluginDataDir, "snapshots")))

	dbPath := cfg.StatsDbPathOverride
	if dbPath == "" {
		dbPath = filepath.Join(paths.PluginDataDir, "index.sqlite")
	}
	idxDB, err := index.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	idxStore := index.NewStore(idxDB)

	highlightsFolder := fsstore.VaultPath(cfg.HighlightsFolder)

	finder := &duplicate.Finder{
		Index:            idxStore,
		UIDs:             uidStore,
		FS:               fs,
		HighlightsFolder: highlightsFolder,
	}

	policy := planner.PolicyMerge
	if !cfg.AutoMergeOnAddition {
		policy = planner.PolicyReplace
	}

	plan := &planner.Planner{
		Index:  idxStore,
		Finder: finder,
		UIDs:   uidStore,
		Policy: policy,
	}

	exec := &executor.Executor{
		FS:                fs,
		UIDs:              uidStore,
		Index:             idxStore,
		Renderer:          annotationBodyRenderer{},
		FormatOpts:        book.FormatOptions{KeywordsAsTags: cfg.Frontmatter.KeywordsAsTags},
		HighlightsFolder:  highlightsFolder,
		BackupDir:         fsstore.SystemPath(filepath.Join(paths.PluginDataDir, "backups")),
		MaxBackupsPerNote: cfg.MaxBackupsPerNote,
		EmptyIncomingRule: merge.EmptyIncomingRule(cfg.MergePolicy.EmptyIncomingRule),
	}

	runner := &migrate.Runner{
		FS:                fs,
		UIDs:              uidStore,
		IndexDB:           idxDB,
		HighlightsFolder:  highlightsFolder,
		LegacySnapshotDir: fsstore.SystemPath(filepath.Join(paths.PluginDataDir, "legacy-snapshots")),
		Logger:            provider.GetLogger("migrate"),
	}

	return &App{
		Settings:      cfg,
		Logger:        provider,
		FS:            fs,
		UIDs:          uidStore,
		IndexDB:       idxDB,
		Index:         idxStore,
		Finder:        finder,
		Planner:       plan,
		Executor:      exec,
		Migrate:       runner,
		pluginDataDir: fsstore.SystemPath(paths.PluginDataDir),
		logFile:       logFile,
	}, nil
}

// Close releases the index database handle and the log file, if one was
// opened.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	if a.IndexDB != nil {
		err = a.IndexDB.Close()
	}
	if a.logFile != nil {
		if closeErr := a.logFile.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// MigrateDataPath is where the plugin's own migration bookkeeping (applied
// migration IDs, cached settings) lives, separate from the vault.
func (a *App) MigrateDataPath() fsstore.SystemPath {
	return fsstore.SystemPath(filepath.Join(string(a.pluginDataDir), "data.json"))
}

// newLoggerProvider picks between the go-logger-backed provider and the
// stdlib-only console provider per settings.LogToFile: LogToFile writes
// leveled entries to a file under LogsFolder without pulling go-logger's
// formatting machinery into the write path, the way a host running
// hundreds of imports on a device with no external log aggregation would
// want. Otherwise go-logger is used, matching the teacher's own default.
func newLoggerProvider(cfg settings.Settings, paths Paths) (interfaces.LoggerProvider, *os.File, error) {
	if !cfg.LogToFile {
		provider, err := golog.NewProvider(golog.Config{Level: logLevelName(cfg.LogLevel)})
		return provider, nil, err
	}

	logsFolder := cfg.LogsFolder
	if logsFolder == "" {
		logsFolder = "logs"
	}
	logDir := filepath.Join(paths.VaultRoot, logsFolder)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(logDir, "kohlsync.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	level := consoleLevel(cfg.LogLevel)
	return console.NewProvider(console.Options{Writer: f, MinLevel: &level}), f, nil
}

func consoleLevel(level int) console.Level {
	switch level {
	case 0:
		return console.LevelError
	case 1:
		return console.LevelWarn
	case 2:
		return console.LevelInfo
	default:
		return console.LevelDebug
	}
}

func logLevelName(level int) string {
	switch level {
	case 0:
		return "error"
	case 1:
		return "warn"
	case 2:
		return "info"
	default:
		return "debug"
	}
}

// annotationBodyRenderer is the default BodyRenderer: it joins each
// annotation's highlighted text (and note, when present) into a flat list.
// Markdown rendering from a user-configurable template language is an
// out-of-scope external collaborator (spec.md §1); this exists only so the
// executor has a working renderer before a host application supplies its
// own.
type annotationBodyRenderer struct{}

func (annotationBodyRenderer) Render(nb book.NormalizedBook, annotations []interfaces.Annotation) (string, error) {
	if len(annotations) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, a := range annotations {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("> ")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(a.Text), "\n", "\n> "))
		if strings.TrimSpace(a.Note) != "" {
			b.WriteString("\n\nNote: ")
			b.WriteString(a.Note)
		}
	}
	return b.String(), nil
}
