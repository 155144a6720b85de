package inbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchStatus is the matching state of a line item.
type MatchStatus string

const (
	MatchStatusUnmatched  MatchStatus = "unmatched"
	MatchStatusMatched    MatchStatus = "matched"
	MatchStatusSuggestion MatchStatus = "suggestion"
)

// LineItem errors
var (
	ErrLineItemNotFound       = errors.New("inbox: line item not found")
	ErrLineItemAlreadyMatched = errors.New("inbox: line item already matched; use manual re-link")
	ErrLineItemInvalidProduct = errors.New("inbox: invalid product ID")
)

// Suggestion is one candidate product offered for manual resolution.
type Suggestion struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
}

// LineItem is one line of a received document, created in bulk by the parse
// stage and mutated once by the matching stage. A matched line is immutable
// except through an explicit manual re-link.
type LineItem struct {
	ID                 uuid.UUID
	DocumentID         uuid.UUID
	TenantID           uuid.UUID
	LineNumber         int
	SupplierCode       string
	Description        string
	Unit               string
	ClassificationCode string
	Barcode            string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	ProductID          *uuid.UUID
	MatchStatus        MatchStatus
	MatchScore         int
	MatchMethod        string
	Suggestions        []Suggestion
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewLineItem creates an unmatched line item for a parsed document line.
func NewLineItem(tenantID, documentID uuid.UUID, lineNumber int) *LineItem {
	now := time.Now()
	return &LineItem{
		ID:          uuid.New(),
		DocumentID:  documentID,
		TenantID:    tenantID,
		LineNumber:  lineNumber,
		Quantity:    decimal.Zero,
		UnitPrice:   decimal.Zero,
		MatchStatus: MatchStatusUnmatched,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyMatch records a confident match found by the matching engine. It
// refuses to overwrite an existing match; that path goes through Relink.
func (i *LineItem) ApplyMatch(productID uuid.UUID, method string, score int) error {
	if productID == uuid.Nil {
		return ErrLineItemInvalidProduct
	}
	if i.MatchStatus == MatchStatusMatched {
		return ErrLineItemAlreadyMatched
	}
	i.ProductID = &productID
	i.MatchStatus = MatchStatusMatched
	i.MatchMethod = method
	i.MatchScore = score
	i.Suggestions = nil
	i.UpdatedAt = time.Now()
	return nil
}

// ApplySuggestions records ambiguous candidates for manual resolution.
func (i *LineItem) ApplySuggestions(suggestions []Suggestion) {
	if i.MatchStatus == MatchStatusMatched {
		return
	}
	if len(suggestions) > 0 {
		i.MatchStatus = MatchStatusSuggestion
	} else {
		i.MatchStatus = MatchStatusUnmatched
	}
	i.Suggestions = suggestions
	i.UpdatedAt = time.Now()
}

// Relink overrides any previous match by explicit operator action.
func (i *LineItem) Relink(productID uuid.UUID) error {
	if productID == uuid.Nil {
		return ErrLineItemInvalidProduct
	}
	i.ProductID = &productID
	i.MatchStatus = MatchStatusMatched
	i.MatchMethod = "manual"
	i.MatchScore = 100
	i.Suggestions = nil
	i.UpdatedAt = time.Now()
	return nil
}

// IsResolved returns true when the line no longer needs matching work.
func (i *LineItem) IsResolved() bool {
	return i.MatchStatus == MatchStatusMatched
}
