package inbox

import (
	"context"

	"github.com/google/uuid"
)

// DocumentFilter defines filter criteria for listing inbox documents.
type DocumentFilter struct {
	Status      *DocumentStatus
	IssuerTaxID string
	Page        int
	PageSize    int
}

// DocumentRepository defines persistence for inbox documents. Every query is
// scoped by tenant ID.
type DocumentRepository interface {
	// Save inserts a new document.
	Save(ctx context.Context, doc *Document) error
	// Update persists changes to an existing document.
	Update(ctx context.Context, doc *Document) error
	// FindByID finds a document by ID within a tenant.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	// FindByAccessKey finds a document by its access key within a tenant.
	// Returns ErrDocumentNotFound when absent.
	FindByAccessKey(ctx context.Context, tenantID uuid.UUID, accessKey string) (*Document, error)
	// ExistsByAccessKey is the dedup check used by the collector.
	ExistsByAccessKey(ctx context.Context, tenantID uuid.UUID, accessKey string) (bool, error)
	// FindAll lists documents for a tenant with optional filters.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]Document, int64, error)
	// FindUnacknowledgedByIssuers returns unacknowledged documents whose
	// issuer tax ID is in the given set.
	FindUnacknowledgedByIssuers(ctx context.Context, tenantID uuid.UUID, issuerTaxIDs []string) ([]Document, error)
}

// LineItemRepository defines persistence for document line items.
type LineItemRepository interface {
	// SaveBatch bulk-inserts the line items produced by the parse stage.
	SaveBatch(ctx context.Context, items []*LineItem) error
	// Update persists changes to a single line item.
	Update(ctx context.Context, item *LineItem) error
	// FindByID finds a line item by ID within a tenant.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LineItem, error)
	// FindByDocument returns all line items of a document ordered by line number.
	FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*LineItem, error)
}

// TrustedIssuerRepository defines persistence for the trusted-issuer list.
type TrustedIssuerRepository interface {
	// Save inserts or updates a trusted issuer.
	Save(ctx context.Context, issuer *TrustedIssuer) error
	// FindAutoAcknowledge returns active issuers with auto-acknowledgment enabled.
	FindAutoAcknowledge(ctx context.Context, tenantID uuid.UUID) ([]TrustedIssuer, error)
}
