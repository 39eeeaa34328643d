// Package pathutil implements the Pathing & Slug functions (spec.md §4.8):
// filesystem-safe name generation, book-identity match keys, and
// collision-avoiding unique stem generation.
package pathutil

import (
	"regexp"
	"strings"
)

var illegalCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
var runOfFillerRe = regexp.MustCompile(`[_ ]{2,}`)

var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// FileSafeOptions configures ToFileSafe.
type FileSafeOptions struct {
	MaxLength int // 0 means unbounded
}

// ToFileSafe removes filesystem-illegal characters, collapses internal runs
// of underscores/spaces, renames reserved device names, and optionally
// enforces a max length (spec.md §4.8). It is pure and deterministic.
func ToFileSafe(input string, opts FileSafeOptions) string {
	s := illegalCharsRe.ReplaceAllString(input, " ")
	s = runOfFillerRe.ReplaceAllStringFunc(s, func(run string) string {
		if strings.Contains(run, "_") {
			return "_"
		}
		return " "
	})
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".")
	if s == "" {
		s = "untitled"
	}

	if reservedNames[strings.ToLower(s)] {
		s = s + "_"
	}

	if opts.MaxLength > 0 && len(s) > opts.MaxLength {
		s = strings.TrimSpace(s[:opts.MaxLength])
	}
	return s
}
