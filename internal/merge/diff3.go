package merge

import "strings"

// diff3Lines performs a line-based three-way merge of ancestor, current (A),
// and incoming (B) (spec.md §4.3). It anchors on lines common to all three
// documents (found via an LCS alignment against the ancestor), and for each
// segment between anchors picks current's version if incoming left that
// segment unchanged from ancestor, incoming's version if current left it
// unchanged, and emits a conflict region if both diverged from ancestor in
// different ways.
func diff3Lines(ancestor, current, incoming []string) (merged []string, conflicted bool) {
	matchA := lcsIndices(ancestor, current)
	matchB := lcsIndices(ancestor, incoming)

	var anchors []int
	for i := range ancestor {
		if _, okA := matchA[i]; !okA {
			continue
		}
		if _, okB := matchB[i]; okB {
			anchors = append(anchors, i)
		}
	}

	prevAnc, prevA, prevB := -1, -1, -1
	emit := func(ancStart, ancEnd, aStart, aEnd, bStart, bEnd int) {
		ancSeg := ancestor[ancStart:ancEnd]
		aSeg := current[aStart:aEnd]
		bSeg := incoming[bStart:bEnd]
		switch {
		case linesEqual(aSeg, bSeg):
			merged = append(merged, aSeg...)
		case linesEqual(aSeg, ancSeg):
			merged = append(merged, bSeg...)
		case linesEqual(bSeg, ancSeg):
			merged = append(merged, aSeg...)
		default:
			merged = append(merged, formatConflictRegion(aSeg, bSeg)...)
			conflicted = true
		}
	}

	for _, anchor := range anchors {
		aIdx, bIdx := matchA[anchor], matchB[anchor]
		emit(prevAnc+1, anchor, prevA+1, aIdx, prevB+1, bIdx)
		merged = append(merged, ancestor[anchor])
		prevAnc, prevA, prevB = anchor, aIdx, bIdx
	}
	emit(prevAnc+1, len(ancestor), prevA+1, len(current), prevB+1, len(incoming))

	return merged, conflicted
}

// formatConflictRegion renders a divergent segment as an Obsidian callout,
// wrapping the current ("A") and incoming ("B") sides (spec.md §4.3).
func formatConflictRegion(current, incoming []string) []string {
	out := []string{"> [!warning]- Merge conflict", "> **Current:**"}
	for _, l := range current {
		out = append(out, "> "+l)
	}
	out = append(out, ">", "> **Incoming:**")
	for _, l := range incoming {
		out = append(out, "> "+l)
	}
	return out
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lcsIndices returns a deterministic longest-common-subsequence alignment
// from indices of a to matching indices of b.
func lcsIndices(a, b []string) map[int]int {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				dp[i][j] = dp[i+1][j+1] + 1
			case dp[i+1][j] >= dp[i][j+1]:
				dp[i][j] = dp[i+1][j]
			default:
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	matches := make(map[int]int)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			matches[i] = j
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return matches
}

func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
