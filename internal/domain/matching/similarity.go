package matching

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity computes a 0-100 similarity score between two names:
// case-folded, length-normalized edit distance, scaled to an integer score.
// Identical strings score 100; completely disjoint strings score 0.
func Similarity(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}

	distance := levenshtein.ComputeDistance(a, b)
	return int((1.0 - float64(distance)/float64(maxLen)) * 100)
}
