package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/domain/shared"
)

// handleMatch runs the matching engine over every unresolved line item of
// the document. A generate_proposal unit is always chained, regardless of
// match completeness, so a human can inspect a partial proposal.
func (p *Processor) handleMatch(ctx context.Context, unit *pipeline.QueueUnit) (*pipeline.QueueUnit, error) {
	doc, err := p.documents.FindByID(ctx, unit.TenantID, unit.DocumentID)
	if err != nil {
		return nil, err
	}

	var input matchStageInput
	if len(unit.Payload) > 0 {
		if err := json.Unmarshal(unit.Payload, &input); err != nil {
			return nil, fmt.Errorf("%w: stage input: %v", ErrMalformedPayload, err)
		}
	}
	issuerTaxID := input.IssuerTaxID
	if issuerTaxID == "" {
		issuerTaxID = doc.IssuerTaxID
	}

	items, err := p.lineItems.FindByDocument(ctx, unit.TenantID, unit.DocumentID)
	if err != nil {
		return nil, err
	}

	matched, pending := 0, 0
	for _, item := range items {
		if item.IsResolved() {
			matched++
			continue
		}

		result, err := p.matcher.Match(ctx, unit.TenantID, matching.Item{
			SupplierTaxID:      issuerTaxID,
			SupplierCode:       item.SupplierCode,
			Description:        item.Description,
			Barcode:            item.Barcode,
			ClassificationCode: item.ClassificationCode,
		})
		if err != nil {
			return nil, fmt.Errorf("matching line %d: %w", item.LineNumber, err)
		}

		if result.Matched() {
			if err := item.ApplyMatch(*result.ProductID, result.Method, result.Score); err != nil {
				return nil, err
			}
			matched++
		} else {
			item.ApplySuggestions(result.Suggestions)
			pending++
		}
		if err := p.lineItems.Update(ctx, item); err != nil {
			return nil, err
		}
	}

	if pending == 0 {
		doc.MatchedItems = matched
		doc.PendingItems = 0
		doc.MarkReadyToBook()
	} else {
		doc.MarkPendingMatching(matched, pending)
	}
	if err := p.documents.Update(ctx, doc); err != nil {
		return nil, err
	}
	p.audit.Record(ctx, shared.NewAuditEvent(doc.TenantID, "document", doc.ID, "matched", fmt.Sprintf("%d matched, %d pending", matched, pending)))

	return pipeline.NewQueueUnit(doc.TenantID, doc.ID, pipeline.StageGenerateProposal, nil)
}
