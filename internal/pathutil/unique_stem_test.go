package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUniqueStemReturnsDesiredWhenFree(t *testing.T) {
	result := GenerateUniqueStem("My Book", func(string) bool { return false }, UniqueStemOptions{Extension: ".md"})
	assert.Equal(t, "My Book", result.Stem)
	assert.False(t, result.WasTruncated)
}

func TestGenerateUniqueStemAppendsCounterSuffix(t *testing.T) {
	taken := map[string]bool{"My Book": true, "My Book (1)": true}
	result := GenerateUniqueStem("My Book", func(candidate string) bool { return taken[candidate] }, UniqueStemOptions{Extension: ".md"})
	assert.Equal(t, "My Book (2)", result.Stem)
}

func TestGenerateUniqueStemTruncatesBeyondBudget(t *testing.T) {
	desired := make([]byte, 400)
	for i := range desired {
		desired[i] = 'a'
	}
	result := GenerateUniqueStem(string(desired), func(string) bool { return false }, UniqueStemOptions{
		Extension:        ".md",
		FolderPathLen:    10,
		TargetMaxPathLen: 255,
	})
	assert.True(t, result.WasTruncated)
	assert.LessOrEqual(t, len(result.Stem)+10+len(".md"), 255)
}

func TestGenerateUniqueStemReusesSameBaseAcrossIterations(t *testing.T) {
	calls := 0
	var seen []string
	GenerateUniqueStem("Repeat", func(candidate string) bool {
		calls++
		seen = append(seen, candidate)
		return calls < 3
	}, UniqueStemOptions{Extension: ".md"})

	for _, c := range seen {
		assert.Contains(t, c, "Repeat")
	}
}
