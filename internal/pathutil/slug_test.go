package pathutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFileSafeStripsIllegalCharacters(t *testing.T) {
	got := ToFileSafe(`Who: What/Why?`, FileSafeOptions{})
	assert.NotContains(t, got, ":")
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, "?")
}

func TestToFileSafeCollapsesRunsOfSpaces(t *testing.T) {
	got := ToFileSafe("Too    Many     Spaces", FileSafeOptions{})
	assert.Equal(t, "Too Many Spaces", got)
}

func TestToFileSafeAvoidsReservedNames(t *testing.T) {
	got := ToFileSafe("CON", FileSafeOptions{})
	assert.NotEqual(t, "CON", got)
	assert.True(t, strings.HasPrefix(got, "CON"))
}

func TestToFileSafeEnforcesMaxLength(t *testing.T) {
	got := ToFileSafe(strings.Repeat("a", 300), FileSafeOptions{MaxLength: 50})
	assert.LessOrEqual(t, len(got), 50)
}

func TestToFileSafeIsDeterministic(t *testing.T) {
	a := ToFileSafe("My Book: Vol. 1", FileSafeOptions{})
	b := ToFileSafe("My Book: Vol. 1", FileSafeOptions{})
	assert.Equal(t, a, b)
}
