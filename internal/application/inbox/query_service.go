package inbox

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/google/uuid"
)

// DocumentDetail is a document with its line items and pipeline history.
type DocumentDetail struct {
	Document  *inbox.Document
	LineItems []*inbox.LineItem
	Units     []*pipeline.QueueUnit
}

// QueryService serves read-only inbox views.
type QueryService struct {
	documents inbox.DocumentRepository
	lineItems inbox.LineItemRepository
	queue     pipeline.QueueRepository
}

// NewQueryService creates a new inbox query service
func NewQueryService(
	documents inbox.DocumentRepository,
	lineItems inbox.LineItemRepository,
	queue pipeline.QueueRepository,
) *QueryService {
	return &QueryService{
		documents: documents,
		lineItems: lineItems,
		queue:     queue,
	}
}

// List returns documents for a tenant with optional filters.
func (s *QueryService) List(ctx context.Context, tenantID uuid.UUID, filter inbox.DocumentFilter) ([]inbox.Document, int64, error) {
	return s.documents.FindAll(ctx, tenantID, filter)
}

// Get returns one document with its line items and queue units.
func (s *QueryService) Get(ctx context.Context, tenantID, documentID uuid.UUID) (*DocumentDetail, error) {
	doc, err := s.documents.FindByID(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	items, err := s.lineItems.FindByDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	units, err := s.queue.FindByDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	return &DocumentDetail{
		Document:  doc,
		LineItems: items,
		Units:     units,
	}, nil
}
