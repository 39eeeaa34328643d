package settings

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kohlsync/core/internal/errkind"
)

// Validate checks field-level constraints the way the teacher's command
// payloads do (validation.Errors keyed by field, validation.NewError per
// violation), returning a single errkind.SettingsInvalid error aggregating
// every problem found rather than stopping at the first one.
func (s Settings) Validate() error {
	errs := validation.Errors{}

	if strings.TrimSpace(s.HighlightsFolder) == "" {
		errs["highlightsFolder"] = validation.NewError("settings.highlights_folder_required", "highlightsFolder must not be empty")
	}

	if s.LogLevel < 0 || s.LogLevel > 3 {
		errs["logLevel"] = validation.NewError("settings.log_level_out_of_range", "logLevel must be between 0 and 3")
	}

	switch s.CommentStyle {
	case CommentStyleHTML, CommentStyleMD, CommentStyleNone:
	default:
		errs["commentStyle"] = validation.NewError("settings.comment_style_invalid", "commentStyle must be one of html, md, none")
	}

	switch s.MergePolicy.EmptyIncomingRule {
	case "strict", "any-nonwhitespace":
	default:
		errs["mergePolicy.emptyIncomingRule"] = validation.NewError("settings.empty_incoming_rule_invalid", "mergePolicy.emptyIncomingRule must be one of strict, any-nonwhitespace")
	}

	if s.MaxHighlightGap < 0 {
		errs["maxHighlightGap"] = validation.NewError("settings.max_highlight_gap_negative", "maxHighlightGap must not be negative")
	}
	if s.MaxTimeGapMinutes < 0 {
		errs["maxTimeGapMinutes"] = validation.NewError("settings.max_time_gap_minutes_negative", "maxTimeGapMinutes must not be negative")
	}
	if s.BackupRetentionDays < 0 {
		errs["backupRetentionDays"] = validation.NewError("settings.backup_retention_days_negative", "backupRetentionDays must not be negative")
	}
	if s.MaxBackupsPerNote < 0 {
		errs["maxBackupsPerNote"] = validation.NewError("settings.max_backups_per_note_negative", "maxBackupsPerNote must not be negative")
	}
	if s.ScanTimeoutSeconds <= 0 {
		errs["scanTimeoutSeconds"] = validation.NewError("settings.scan_timeout_seconds_invalid", "scanTimeoutSeconds must be positive")
	}

	if s.UseCustomFileNameTemplate && strings.TrimSpace(s.FileNameTemplate) == "" {
		errs["fileNameTemplate"] = validation.NewError("settings.file_name_template_required", "fileNameTemplate must not be empty when useCustomFileNameTemplate is set")
	}

	if len(errs) == 0 {
		return nil
	}
	return errkind.New(errkind.SettingsInvalid, errs.Error(), errs)
}
