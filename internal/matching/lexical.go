package matching

import (
	"sort"
	"strings"
)

// tokenSortRatio is a token-order-insensitive similarity ratio in [0,1].
// Both strings are split into words, sorted, rejoined and compared by edit
// distance, so "rice basmati 5kg" and "basmati rice" line up.
func tokenSortRatio(a, b string) float64 {
	sortedA := sortTokens(a)
	sortedB := sortTokens(b)

	if sortedA == sortedB {
		return 1.0
	}
	if sortedA == "" || sortedB == "" {
		return 0.0
	}

	longest := len(sortedA)
	if len(sortedB) > longest {
		longest = len(sortedB)
	}

	dist := levenshteinDistance(sortedA, sortedB)
	return 1.0 - float64(dist)/float64(longest)
}

func sortTokens(s string) string {
	words := strings.Fields(s)
	sort.Strings(words)
	return strings.Join(words, " ")
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
