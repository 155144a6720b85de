package matching

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/google/uuid"
)

// Match methods, in cascade precedence order.
const (
	MethodSupplierCode = "supplier_code"
	MethodIdentifier   = "identifier"
	MethodFuzzy        = "fuzzy"
	MethodManual       = "manual"
)

// Scores assigned by each confident strategy.
const (
	ScoreSupplierCode = 100
	ScoreIdentifier   = 95
	ScoreManual       = 100

	// FuzzyThreshold is the minimum similarity score (inclusive) for a
	// fuzzy candidate to be accepted as a match.
	FuzzyThreshold = 70

	// MaxSuggestions caps the candidate list attached to ambiguous lines.
	MaxSuggestions = 5
)

// Result is the outcome of running the cascade for one line item. A nil
// ProductID with suggestions means the line needs manual resolution.
type Result struct {
	ProductID   *uuid.UUID
	Method      string
	Score       int
	Suggestions []inbox.Suggestion
}

// Matched returns true when a confident product match was found.
func (r Result) Matched() bool {
	return r.ProductID != nil
}

// Item carries the supplier-side attributes of a line the engine matches on.
type Item struct {
	SupplierTaxID      string
	SupplierCode       string
	Description        string
	Barcode            string
	ClassificationCode string
}

// Strategy is one stage of the matching cascade. A stage returns a non-nil
// Result when it has a confident opinion (or, for the fuzzy stage, a set of
// suggestions) and nil when the next stage should be tried. Stages are pure
// with respect to each other; the first confident result wins.
type Strategy interface {
	Match(ctx context.Context, tenantID uuid.UUID, item Item) (*Result, error)
}
