package matching

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MappingOrigin records how a supplier mapping was learned.
type MappingOrigin string

const (
	OriginManual    MappingOrigin = "manual"
	OriginAutomatic MappingOrigin = "automatic"
	OriginFuzzy     MappingOrigin = "fuzzy"
)

// SupplierMapping errors
var (
	ErrMappingInvalidTenantID  = errors.New("matching: invalid tenant ID")
	ErrMappingInvalidSupplier  = errors.New("matching: supplier tax ID and code are required")
	ErrMappingInvalidProductID = errors.New("matching: invalid product ID")
	ErrMappingNotFound         = errors.New("matching: supplier mapping not found")
)

// SupplierMapping is a learned association ("de-para") between one supplier's
// product code and an internal product. Unique per (tenant, supplier tax id,
// supplier code); upserts increment TimesUsed rather than duplicating.
// Mappings are never deleted, only soft-disabled.
type SupplierMapping struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	SupplierTaxID       string
	SupplierCode        string
	SupplierDescription string
	Barcode             string
	ClassificationCode  string
	ProductID           uuid.UUID
	Origin              MappingOrigin
	Confidence          int
	TimesUsed           int
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewSupplierMapping creates a mapping learned for a supplier's product code.
func NewSupplierMapping(tenantID uuid.UUID, supplierTaxID, supplierCode string, productID uuid.UUID, origin MappingOrigin, confidence int) (*SupplierMapping, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMappingInvalidTenantID
	}
	if supplierTaxID == "" || supplierCode == "" {
		return nil, ErrMappingInvalidSupplier
	}
	if productID == uuid.Nil {
		return nil, ErrMappingInvalidProductID
	}

	now := time.Now()
	return &SupplierMapping{
		ID:            uuid.New(),
		TenantID:      tenantID,
		SupplierTaxID: supplierTaxID,
		SupplierCode:  supplierCode,
		ProductID:     productID,
		Origin:        origin,
		Confidence:    confidence,
		TimesUsed:     1,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// RecordUse increments the times-used counter on a mapping hit.
func (m *SupplierMapping) RecordUse() {
	m.TimesUsed++
	m.UpdatedAt = time.Now()
}

// Relearn points an existing mapping at a different product.
func (m *SupplierMapping) Relearn(productID uuid.UUID, origin MappingOrigin, confidence int) error {
	if productID == uuid.Nil {
		return ErrMappingInvalidProductID
	}
	m.ProductID = productID
	m.Origin = origin
	m.Confidence = confidence
	m.TimesUsed++
	m.Active = true
	m.UpdatedAt = time.Now()
	return nil
}

// Disable soft-disables the mapping. Mappings are never hard-deleted.
func (m *SupplierMapping) Disable() {
	m.Active = false
	m.UpdatedAt = time.Now()
}
