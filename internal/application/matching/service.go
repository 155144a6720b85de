package matching

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/catalog"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs the product matching cascade and exposes the manual
// resolution operations built on top of it.
type Service struct {
	strategies []matching.Strategy
	mappings   matching.SupplierMappingRepository
	products   catalog.ProductReader
	documents  inbox.DocumentRepository
	lineItems  inbox.LineItemRepository
	audit      shared.AuditSink
	logger     *zap.Logger
}

// NewService builds the cascade in precedence order: supplier code beats
// identifier beats fuzzy beats none.
func NewService(
	mappings matching.SupplierMappingRepository,
	products catalog.ProductReader,
	documents inbox.DocumentRepository,
	lineItems inbox.LineItemRepository,
	audit shared.AuditSink,
	logger *zap.Logger,
) *Service {
	return &Service{
		strategies: []matching.Strategy{
			&supplierCodeStrategy{mappings: mappings},
			&identifierStrategy{products: products, mappings: mappings},
			&fuzzyStrategy{products: products, mappings: mappings},
		},
		mappings:  mappings,
		products:  products,
		documents: documents,
		lineItems: lineItems,
		audit:     audit,
		logger:    logger,
	}
}

// Match runs the cascade for one line item. The first confident result wins;
// when no stage is confident the result carries the fuzzy stage's candidate
// suggestions, if any, for manual resolution.
func (s *Service) Match(ctx context.Context, tenantID uuid.UUID, item matching.Item) (matching.Result, error) {
	var suggestions []inbox.Suggestion
	for _, strategy := range s.strategies {
		result, err := strategy.Match(ctx, tenantID, item)
		if err != nil {
			return matching.Result{}, err
		}
		if result == nil {
			continue
		}
		if result.Matched() {
			return *result, nil
		}
		suggestions = result.Suggestions
	}

	return matching.Result{
		Method:      matching.MethodManual,
		Suggestions: suggestions,
	}, nil
}

// LinkLineItem is the manual override: an operator resolves a suggestion or
// unmatched line by hand. It re-links the line and upserts a de-para mapping
// with full confidence so the cascade learns the association.
func (s *Service) LinkLineItem(ctx context.Context, tenantID, lineItemID, productID uuid.UUID) error {
	item, err := s.lineItems.FindByID(ctx, tenantID, lineItemID)
	if err != nil {
		return err
	}

	product, err := s.products.FindByID(ctx, tenantID, productID)
	if err != nil {
		return err
	}

	if err := item.Relink(product.ID); err != nil {
		return err
	}
	if err := s.lineItems.Update(ctx, item); err != nil {
		return err
	}

	doc, err := s.documents.FindByID(ctx, tenantID, item.DocumentID)
	if err != nil {
		return err
	}
	if item.SupplierCode != "" && doc.IssuerTaxID != "" {
		mapping, err := matching.NewSupplierMapping(tenantID, doc.IssuerTaxID, item.SupplierCode, product.ID, matching.OriginManual, matching.ScoreManual)
		if err != nil {
			return err
		}
		mapping.SupplierDescription = item.Description
		mapping.Barcode = item.Barcode
		mapping.ClassificationCode = item.ClassificationCode
		if err := s.mappings.Upsert(ctx, mapping); err != nil {
			return err
		}
	}

	s.audit.Record(ctx, shared.NewAuditEvent(tenantID, "line_item", item.ID, "manual_link", product.ID.String()))
	s.logger.Info("line item manually linked",
		zap.String("line_item_id", item.ID.String()),
		zap.String("product_id", product.ID.String()),
	)
	return nil
}

// ListSupplierMappings lists learned mappings for a tenant, optionally
// restricted to one supplier.
func (s *Service) ListSupplierMappings(ctx context.Context, tenantID uuid.UUID, supplierTaxID string) ([]matching.SupplierMapping, error) {
	return s.mappings.FindByTenant(ctx, tenantID, supplierTaxID)
}
