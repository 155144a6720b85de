package matching

import (
	"context"

	"github.com/google/uuid"
)

// SupplierMappingRepository defines persistence for learned supplier
// mappings. Every query is scoped by tenant ID.
type SupplierMappingRepository interface {
	// FindBySupplierCode finds the active mapping for (tenant, supplier tax
	// id, supplier code). Returns ErrMappingNotFound when absent.
	FindBySupplierCode(ctx context.Context, tenantID uuid.UUID, supplierTaxID, supplierCode string) (*SupplierMapping, error)
	// FindByTenant lists mappings for a tenant, optionally filtered by
	// supplier tax ID.
	FindByTenant(ctx context.Context, tenantID uuid.UUID, supplierTaxID string) ([]SupplierMapping, error)
	// Upsert inserts the mapping or, when (tenant, supplier tax id,
	// supplier code) already exists, re-points it and increments TimesUsed.
	Upsert(ctx context.Context, mapping *SupplierMapping) error
	// Update persists changes to an existing mapping.
	Update(ctx context.Context, mapping *SupplierMapping) error
}
