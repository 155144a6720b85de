package models

import (
	"time"

	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/google/uuid"
)

// SupplierMappingModel is the persistence model for learned de-para mappings.
type SupplierMappingModel struct {
	ID                  uuid.UUID              `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_supplier_mapping_key,priority:1"`
	SupplierTaxID       string                 `gorm:"type:varchar(20);not null;uniqueIndex:idx_supplier_mapping_key,priority:2"`
	SupplierCode        string                 `gorm:"type:varchar(60);not null;uniqueIndex:idx_supplier_mapping_key,priority:3"`
	SupplierDescription string                 `gorm:"type:varchar(255)"`
	Barcode             string                 `gorm:"type:varchar(20)"`
	ClassificationCode  string                 `gorm:"type:varchar(10)"`
	ProductID           uuid.UUID              `gorm:"type:uuid;not null;index:idx_supplier_mapping_product"`
	Origin              matching.MappingOrigin `gorm:"type:varchar(20);not null"`
	Confidence          int                    `gorm:"default:0"`
	TimesUsed           int                    `gorm:"default:0"`
	Active              bool                   `gorm:"default:true"`
	CreatedAt           time.Time              `gorm:"not null;default:now()"`
	UpdatedAt           time.Time              `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (SupplierMappingModel) TableName() string {
	return "supplier_product_mapping"
}

// ToDomain converts the persistence model to a domain SupplierMapping
func (m *SupplierMappingModel) ToDomain() *matching.SupplierMapping {
	return &matching.SupplierMapping{
		ID:                  m.ID,
		TenantID:            m.TenantID,
		SupplierTaxID:       m.SupplierTaxID,
		SupplierCode:        m.SupplierCode,
		SupplierDescription: m.SupplierDescription,
		Barcode:             m.Barcode,
		ClassificationCode:  m.ClassificationCode,
		ProductID:           m.ProductID,
		Origin:              m.Origin,
		Confidence:          m.Confidence,
		TimesUsed:           m.TimesUsed,
		Active:              m.Active,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SupplierMapping
func (m *SupplierMappingModel) FromDomain(s *matching.SupplierMapping) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.SupplierTaxID = s.SupplierTaxID
	m.SupplierCode = s.SupplierCode
	m.SupplierDescription = s.SupplierDescription
	m.Barcode = s.Barcode
	m.ClassificationCode = s.ClassificationCode
	m.ProductID = s.ProductID
	m.Origin = s.Origin
	m.Confidence = s.Confidence
	m.TimesUsed = s.TimesUsed
	m.Active = s.Active
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}
