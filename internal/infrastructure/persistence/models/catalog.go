package models

import (
	"time"

	"github.com/fiscalhub/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// ProductModel is the persistence model for the internal product records the
// matching engine reads. The wider catalog lives outside this core.
type ProductModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index:idx_products_tenant_barcode,priority:1;index:idx_products_tenant_class,priority:1"`
	SKU                string    `gorm:"type:varchar(60)"`
	Name               string    `gorm:"type:varchar(255);not null"`
	Barcode            string    `gorm:"type:varchar(20);index:idx_products_tenant_barcode,priority:2"`
	ClassificationCode string    `gorm:"type:varchar(10);index:idx_products_tenant_class,priority:2"`
	Unit               string    `gorm:"type:varchar(10)"`
	Active             bool      `gorm:"default:true"`
	CreatedAt          time.Time `gorm:"not null;default:now()"`
	UpdatedAt          time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		SKU:                m.SKU,
		Name:               m.Name,
		Barcode:            m.Barcode,
		ClassificationCode: m.ClassificationCode,
		Unit:               m.Unit,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
