// Package settings loads and validates the plugin's persisted configuration
// (spec.md §6). Settings arrive as a loosely-typed JSON object (the plugin
// data file's "settings" key); Load coerces it into a concrete Settings
// value, rewriting legacy keys and dropping anything unrecognized rather
// than failing the whole load over one bad field.
package settings

import (
	"strconv"
	"strings"

	"github.com/kohlsync/core/internal/errkind"
)

// Template holds the user-authored rendering template source (spec.md §6
// template.*). Rendering itself is an out-of-scope external collaborator;
// the plugin only stores and passes this value through.
type Template struct {
	Source string `json:"source"`
}

// Frontmatter controls which fields Load/rendering put into a note's YAML
// frontmatter block (spec.md §6 frontmatter.*).
type Frontmatter struct {
	DisabledFields  []string `json:"disabledFields"`
	CustomFields    map[string]string `json:"customFields"`
	UseUnknownAuthor bool    `json:"useUnknownAuthor"`
	KeywordsAsTags  bool     `json:"keywordsAsTags"`
	DurationFormat  string   `json:"durationFormat"`
}

// MergePolicy controls choices the merge engine makes that SPEC_FULL.md
// commits to surfacing as settings rather than hardcoding (spec.md §9).
type MergePolicy struct {
	// EmptyIncomingRule selects how aggressively an empty incoming body
	// forces a conflict during a three-way merge: "strict" (default) or
	// "any-nonwhitespace".
	EmptyIncomingRule string `json:"emptyIncomingRule"`
}

// CommentStyle is the markup used for inline notes attached to highlights.
type CommentStyle string

const (
	CommentStyleHTML CommentStyle = "html"
	CommentStyleMD   CommentStyle = "md"
	CommentStyleNone CommentStyle = "none"
)

// Settings is the plugin's full configuration surface (spec.md §6).
type Settings struct {
	HighlightsFolder string   `json:"highlightsFolder"`
	ExcludedFolders  []string `json:"excludedFolders"`
	AllowedFileTypes []string `json:"allowedFileTypes"`

	LogLevel   int    `json:"logLevel"`
	LogsFolder string `json:"logsFolder"`
	LogToFile  bool   `json:"logToFile"`

	EnableFullDuplicateCheck bool `json:"enableFullDuplicateCheck"`

	FileNameTemplate          string `json:"fileNameTemplate"`
	UseCustomFileNameTemplate bool   `json:"useCustomFileNameTemplate"`

	AutoMergeOnAddition bool `json:"autoMergeOnAddition"`

	MaxHighlightGap            int  `json:"maxHighlightGap"`
	MaxTimeGapMinutes          int  `json:"maxTimeGapMinutes"`
	MergeOverlappingHighlights bool `json:"mergeOverlappingHighlights"`

	CommentStyle CommentStyle `json:"commentStyle"`

	BackupRetentionDays int `json:"backupRetentionDays"`
	MaxBackupsPerNote   int `json:"maxBackupsPerNote"`

	ScanTimeoutSeconds int `json:"scanTimeoutSeconds"`

	Template    Template    `json:"template"`
	Frontmatter Frontmatter `json:"frontmatter"`
	MergePolicy MergePolicy `json:"mergePolicy"`

	StatsDbPathOverride string `json:"statsDbPathOverride"`
	KoreaderScanPath    string `json:"koreaderScanPath"`
}

// Default returns the settings a fresh install starts from.
func Default() Settings {
	return Settings{
		HighlightsFolder:           "Books",
		AllowedFileTypes:           []string{"epub", "pdf", "mobi", "azw3", "txt", "fb2", "cbz"},
		LogLevel:                   1,
		LogsFolder:                 ".kohl/logs",
		EnableFullDuplicateCheck:   true,
		FileNameTemplate:           "{{authors}} - {{title}}",
		AutoMergeOnAddition:        true,
		MaxHighlightGap:            0,
		MaxTimeGapMinutes:          0,
		MergeOverlappingHighlights: true,
		CommentStyle:               CommentStyleMD,
		BackupRetentionDays:        30,
		MaxBackupsPerNote:          5,
		ScanTimeoutSeconds:         30,
		Frontmatter: Frontmatter{
			DurationFormat: "human",
		},
		MergePolicy: MergePolicy{
			EmptyIncomingRule: "strict",
		},
	}
}

// boolTokens is the case-insensitive set of strings Load accepts in place of
// a native JSON boolean (spec.md §6), empty string reading as false.
var boolTokens = map[string]bool{
	"true": true, "false": false,
	"1": true, "0": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"on": true, "off": false,
	"": false,
}

// legacyKeyRenames maps keys a pre-UID-era plugin wrote to their current
// name, applied before anything else so the rest of Load only ever sees
// current keys (spec.md §6).
var legacyKeyRenames = map[string]string{
	"koreaderMountPoint": "koreaderScanPath",
}

// Load coerces a loosely-typed settings object (as decoded from the
// plugin's persisted JSON) into a Settings value layered over Default.
// Booleans accept the documented token set regardless of their JSON type;
// the legacy koreaderMountPoint key is rewritten to koreaderScanPath; any
// other key Settings doesn't recognize is silently dropped.
func Load(raw map[string]any) (Settings, error) {
	s := Default()
	if raw == nil {
		return s, nil
	}

	normalized := make(map[string]any, len(raw))
	for k, v := range raw {
		if renamed, ok := legacyKeyRenames[k]; ok {
			k = renamed
		}
		normalized[k] = v
	}

	for key, val := range normalized {
		switch key {
		case "highlightsFolder":
			s.HighlightsFolder = asString(val)
		case "excludedFolders":
			s.ExcludedFolders = asStringSlice(val)
		case "allowedFileTypes":
			if ss := asStringSlice(val); ss != nil {
				s.AllowedFileTypes = lowercaseAll(ss)
			}
		case "logLevel":
			if n, ok := asInt(val); ok {
				s.LogLevel = n
			}
		case "logsFolder":
			s.LogsFolder = asString(val)
		case "logToFile":
			b, err := asBool(val)
			if err != nil {
				return s, err
			}
			s.LogToFile = b
		case "enableFullDuplicateCheck":
			b, err := asBool(val)
			if err != nil {
				return s, err
			}
			s.EnableFullDuplicateCheck = b
		case "fileNameTemplate":
			s.FileNameTemplate = asString(val)
		case "useCustomFileNameTemplate":
			b, err := asBool(val)
			if err != nil {
				return s, err
			}
			s.UseCustomFileNameTemplate = b
		case "autoMergeOnAddition":
			b, err := asBool(val)
			if err != nil {
				return s, err
			}
			s.AutoMergeOnAddition = b
		case "maxHighlightGap":
			if n, ok := asInt(val); ok {
				s.MaxHighlightGap = n
			}
		case "maxTimeGapMinutes":
			if n, ok := asInt(val); ok {
				s.MaxTimeGapMinutes = n
			}
		case "mergeOverlappingHighlights":
			b, err := asBool(val)
			if err != nil {
				return s, err
			}
			s.MergeOverlappingHighlights = b
		case "commentStyle":
			s.CommentStyle = CommentStyle(asString(val))
		case "backupRetentionDays":
			if n, ok := asInt(val); ok {
				s.BackupRetentionDays = n
			}
		case "maxBackupsPerNote":
			if n, ok := asInt(val); ok {
				s.MaxBackupsPerNote = n
			}
		case "scanTimeoutSeconds":
			if n, ok := asInt(val); ok {
				s.ScanTimeoutSeconds = n
			}
		case "template":
			if m, ok := val.(map[string]any); ok {
				if src, ok := m["source"].(string); ok {
					s.Template.Source = src
				}
			}
		case "frontmatter":
			if m, ok := val.(map[string]any); ok {
				loadFrontmatter(&s.Frontmatter, m)
			}
		case "mergePolicy":
			if m, ok := val.(map[string]any); ok {
				if v, ok := m["emptyIncomingRule"]; ok {
					s.MergePolicy.EmptyIncomingRule = asString(v)
				}
			}
		case "statsDbPathOverride":
			s.StatsDbPathOverride = asString(val)
		case "koreaderScanPath":
			s.KoreaderScanPath = asString(val)
		default:
			// unknown key, dropped silently per spec.md §6.
		}
	}

	return s, nil
}

func loadFrontmatter(fm *Frontmatter, m map[string]any) {
	if v, ok := m["disabledFields"]; ok {
		fm.DisabledFields = asStringSlice(v)
	}
	if v, ok := m["customFields"].(map[string]any); ok {
		fm.CustomFields = make(map[string]string, len(v))
		for k, val := range v {
			fm.CustomFields[k] = asString(val)
		}
	}
	if v, ok := m["useUnknownAuthor"]; ok {
		if b, err := asBool(v); err == nil {
			fm.UseUnknownAuthor = b
		}
	}
	if v, ok := m["keywordsAsTags"]; ok {
		if b, err := asBool(v); err == nil {
			fm.KeywordsAsTags = b
		}
	}
	if v, ok := m["durationFormat"]; ok {
		fm.DurationFormat = asString(v)
	}
}

func asBool(val any) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		b, ok := boolTokens[strings.ToLower(v)]
		if !ok {
			return false, errkind.New(errkind.SettingsInvalid, "invalid boolean value "+strconv.Quote(v), nil)
		}
		return b, nil
	default:
		return false, errkind.New(errkind.SettingsInvalid, "invalid boolean value", nil)
	}
}

func asInt(val any) (int, bool) {
	switch v := val.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func asString(val any) string {
	s, _ := val.(string)
	return s
}

func asStringSlice(val any) []string {
	items, ok := val.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func lowercaseAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}
