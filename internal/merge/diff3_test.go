package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff3LinesCleanWhenOnlyOneSideChanges(t *testing.T) {
	ancestor := []string{"a", "b", "c"}
	current := []string{"a", "b", "c"}
	incoming := []string{"a", "B", "c"}

	merged, conflicted := diff3Lines(ancestor, current, incoming)
	assert.False(t, conflicted)
	assert.Equal(t, []string{"a", "B", "c"}, merged)
}

func TestDiff3LinesCleanWhenBothSidesMakeSameChange(t *testing.T) {
	ancestor := []string{"a", "b"}
	current := []string{"a", "X"}
	incoming := []string{"a", "X"}

	merged, conflicted := diff3Lines(ancestor, current, incoming)
	assert.False(t, conflicted)
	assert.Equal(t, []string{"a", "X"}, merged)
}

func TestDiff3LinesConflictsWhenBothSidesDiverge(t *testing.T) {
	ancestor := []string{"a", "b", "c"}
	current := []string{"a", "B1", "c"}
	incoming := []string{"a", "B2", "c"}

	merged, conflicted := diff3Lines(ancestor, current, incoming)
	assert.True(t, conflicted)
	joined := joinLines(merged)
	assert.Contains(t, joined, "B1")
	assert.Contains(t, joined, "B2")
	assert.Contains(t, joined, "[!warning]")
}

func TestDiff3LinesIsDeterministic(t *testing.T) {
	ancestor := []string{"1", "2", "3"}
	current := []string{"1", "2a", "3"}
	incoming := []string{"1", "2b", "3"}

	first, _ := diff3Lines(ancestor, current, incoming)
	second, _ := diff3Lines(ancestor, current, incoming)
	assert.Equal(t, first, second)
}
