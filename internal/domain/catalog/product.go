package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Product errors
var (
	ErrProductNotFound = errors.New("catalog: product not found")
)

// Product is the internal product record the matching engine links line
// items against. The full catalog (categories, units, attachments, pricing)
// lives outside this core; only the attributes matching reads are modeled.
type Product struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	SKU                string
	Name               string
	Barcode            string
	ClassificationCode string
	Unit               string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProductReader defines the catalog lookups used by the matching engine.
type ProductReader interface {
	// FindByID finds a product by ID within a tenant.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	// FindByBarcode finds an active product carrying the given barcode.
	// Returns ErrProductNotFound when absent.
	FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*Product, error)
	// FindByClassification returns active products sharing a classification
	// code, the candidate pool for fuzzy description matching.
	FindByClassification(ctx context.Context, tenantID uuid.UUID, classificationCode string) ([]Product, error)
}
