package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProposalActions are the downstream actions launching the document would
// trigger. The proposal is a staged, human-reviewable summary; none of these
// actions are executed by this pipeline.
type ProposalActions struct {
	UpdateStock       bool `json:"update_stock"`
	CreatePayable     bool `json:"create_payable"`
	UpdateAverageCost bool `json:"update_average_cost"`
	CreateSupplier    bool `json:"create_supplier"`
}

// ProposalItem is one document line in the booking proposal.
type ProposalItem struct {
	LineNumber  int             `json:"line_number"`
	Description string          `json:"description"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Matched     bool            `json:"matched"`
}

// BookingProposal is the payload stored verbatim on the document once the
// propose stage runs.
type BookingProposal struct {
	DocumentID   uuid.UUID       `json:"document_id"`
	AccessKey    string          `json:"access_key"`
	IssuerTaxID  string          `json:"issuer_tax_id"`
	IssuerName   string          `json:"issuer_name"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Actions      ProposalActions `json:"actions"`
	Items        []ProposalItem  `json:"items"`
	PendingItems int             `json:"pending_items"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// handlePropose assembles the booking proposal and marks the document ready
// for booking. The document is marked ready even when some lines remain
// unmatched: the operator finishes matching after seeing the proposal.
func (p *Processor) handlePropose(ctx context.Context, unit *pipeline.QueueUnit) (*pipeline.QueueUnit, error) {
	doc, err := p.documents.FindByID(ctx, unit.TenantID, unit.DocumentID)
	if err != nil {
		return nil, err
	}
	items, err := p.lineItems.FindByDocument(ctx, unit.TenantID, unit.DocumentID)
	if err != nil {
		return nil, err
	}

	proposal := BookingProposal{
		DocumentID:  doc.ID,
		AccessKey:   doc.AccessKey,
		IssuerTaxID: doc.IssuerTaxID,
		IssuerName:  doc.IssuerName,
		TotalValue:  doc.TotalValue,
		GeneratedAt: time.Now(),
	}

	anyMatched := false
	for _, item := range items {
		matched := item.IsResolved()
		if matched {
			anyMatched = true
		} else {
			proposal.PendingItems++
		}
		proposal.Items = append(proposal.Items, ProposalItem{
			LineNumber:  item.LineNumber,
			Description: item.Description,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Matched:     matched,
		})
	}

	proposal.Actions = ProposalActions{
		UpdateStock:       anyMatched,
		CreatePayable:     doc.TotalValue.IsPositive(),
		UpdateAverageCost: anyMatched,
		CreateSupplier:    doc.IssuerTaxID != "",
	}

	payload, err := json.Marshal(proposal)
	if err != nil {
		return nil, err
	}
	doc.SetProposal(payload)
	doc.MarkReadyToBook()
	if err := p.documents.Update(ctx, doc); err != nil {
		return nil, err
	}
	p.audit.Record(ctx, shared.NewAuditEvent(doc.TenantID, "document", doc.ID, "proposal_generated", ""))

	// Terminal stage: no follow-on unit.
	return nil, nil
}
