package inbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItem_ApplyMatch(t *testing.T) {
	item := NewLineItem(uuid.New(), uuid.New(), 1)
	productID := uuid.New()

	require.NoError(t, item.ApplyMatch(productID, "supplier_code", 100))

	assert.Equal(t, MatchStatusMatched, item.MatchStatus)
	assert.Equal(t, &productID, item.ProductID)
	assert.Equal(t, "supplier_code", item.MatchMethod)
	assert.Equal(t, 100, item.MatchScore)
	assert.True(t, item.IsResolved())

	// A matched line is immutable to the engine.
	err := item.ApplyMatch(uuid.New(), "fuzzy", 80)
	assert.ErrorIs(t, err, ErrLineItemAlreadyMatched)
	assert.Equal(t, &productID, item.ProductID)
}

func TestLineItem_ApplyMatch_NilProduct(t *testing.T) {
	item := NewLineItem(uuid.New(), uuid.New(), 1)

	err := item.ApplyMatch(uuid.Nil, "identifier", 95)
	assert.ErrorIs(t, err, ErrLineItemInvalidProduct)
	assert.Equal(t, MatchStatusUnmatched, item.MatchStatus)
}

func TestLineItem_ApplySuggestions(t *testing.T) {
	item := NewLineItem(uuid.New(), uuid.New(), 1)
	suggestions := []Suggestion{
		{ProductID: uuid.New(), Name: "Arroz Tipo 1 5kg", Score: 68},
		{ProductID: uuid.New(), Name: "Arroz Tipo 2 5kg", Score: 64},
	}

	item.ApplySuggestions(suggestions)
	assert.Equal(t, MatchStatusSuggestion, item.MatchStatus)
	assert.Len(t, item.Suggestions, 2)
	assert.False(t, item.IsResolved())

	// Empty candidate list falls back to unmatched.
	item.ApplySuggestions(nil)
	assert.Equal(t, MatchStatusUnmatched, item.MatchStatus)
}

func TestLineItem_ApplySuggestions_IgnoredWhenMatched(t *testing.T) {
	item := NewLineItem(uuid.New(), uuid.New(), 1)
	require.NoError(t, item.ApplyMatch(uuid.New(), "identifier", 95))

	item.ApplySuggestions([]Suggestion{{ProductID: uuid.New(), Score: 70}})

	assert.Equal(t, MatchStatusMatched, item.MatchStatus)
	assert.Nil(t, item.Suggestions)
}

func TestLineItem_Relink(t *testing.T) {
	item := NewLineItem(uuid.New(), uuid.New(), 1)
	require.NoError(t, item.ApplyMatch(uuid.New(), "fuzzy", 82))

	newProduct := uuid.New()
	require.NoError(t, item.Relink(newProduct))

	assert.Equal(t, &newProduct, item.ProductID)
	assert.Equal(t, "manual", item.MatchMethod)
	assert.Equal(t, 100, item.MatchScore)

	assert.ErrorIs(t, item.Relink(uuid.Nil), ErrLineItemInvalidProduct)
}
