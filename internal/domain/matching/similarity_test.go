package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	t.Run("identical strings score 100", func(t *testing.T) {
		assert.Equal(t, 100, Similarity("Arroz Branco 5kg", "Arroz Branco 5kg"))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, 100, Similarity("  ARROZ BRANCO 5KG ", "arroz branco 5kg"))
	})

	t.Run("disjoint strings score low", func(t *testing.T) {
		assert.Less(t, Similarity("parafuso sextavado", "detergente neutro"), 30)
	})

	t.Run("near miss scores high", func(t *testing.T) {
		// One character of drift over a long name stays above the
		// acceptance threshold.
		score := Similarity("Cafe Torrado e Moido 500g", "Cafe Torrado e Moido 500gr")
		assert.GreaterOrEqual(t, score, FuzzyThreshold)
	})

	t.Run("acceptance boundary", func(t *testing.T) {
		// Three edits over ten runes land exactly on the threshold.
		assert.Equal(t, FuzzyThreshold, Similarity("SERRA 1000", "SERRA 1234"))
		// Four edits over thirteen runes land one point below it.
		assert.Equal(t, FuzzyThreshold-1, Similarity("MARTELO 1000X", "MARTELO 2345X"))
	})

	t.Run("both empty scores zero", func(t *testing.T) {
		assert.Equal(t, 0, Similarity("", ""))
	})

	t.Run("one empty scores zero", func(t *testing.T) {
		assert.Equal(t, 0, Similarity("arroz", ""))
	})
}
