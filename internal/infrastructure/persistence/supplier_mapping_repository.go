package persistence

import (
	"context"
	"errors"

	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSupplierMappingRepository implements matching.SupplierMappingRepository using GORM
type GormSupplierMappingRepository struct {
	db *gorm.DB
}

// NewGormSupplierMappingRepository creates a new GORM-based supplier mapping repository
func NewGormSupplierMappingRepository(db *gorm.DB) *GormSupplierMappingRepository {
	return &GormSupplierMappingRepository{db: db}
}

// FindBySupplierCode finds the active mapping for (tenant, supplier tax id, supplier code)
func (r *GormSupplierMappingRepository) FindBySupplierCode(ctx context.Context, tenantID uuid.UUID, supplierTaxID, supplierCode string) (*matching.SupplierMapping, error) {
	var model models.SupplierMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND supplier_tax_id = ? AND supplier_code = ?", tenantID, supplierTaxID, supplierCode).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, matching.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant lists mappings for a tenant, optionally filtered by supplier tax ID
func (r *GormSupplierMappingRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, supplierTaxID string) ([]matching.SupplierMapping, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID)
	if supplierTaxID != "" {
		query = query.Where("supplier_tax_id = ?", supplierTaxID)
	}

	var rows []models.SupplierMappingModel
	err := query.Order("supplier_tax_id ASC, supplier_code ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	mappings := make([]matching.SupplierMapping, len(rows))
	for i := range rows {
		mappings[i] = *rows[i].ToDomain()
	}
	return mappings, nil
}

// Upsert inserts the mapping or, when the (tenant, supplier tax id, supplier
// code) key already exists, re-points it and increments the usage counter.
func (r *GormSupplierMappingRepository) Upsert(ctx context.Context, mapping *matching.SupplierMapping) error {
	var model models.SupplierMappingModel
	model.FromDomain(mapping)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "supplier_tax_id"},
				{Name: "supplier_code"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"product_id":           model.ProductID,
				"origin":               model.Origin,
				"confidence":           model.Confidence,
				"supplier_description": model.SupplierDescription,
				"barcode":              model.Barcode,
				"classification_code":  model.ClassificationCode,
				"active":               true,
				"times_used":           gorm.Expr("supplier_product_mapping.times_used + 1"),
				"updated_at":           model.UpdatedAt,
			}),
		}).
		Create(&model).Error
}

// Update persists changes to an existing mapping
func (r *GormSupplierMappingRepository) Update(ctx context.Context, mapping *matching.SupplierMapping) error {
	var model models.SupplierMappingModel
	model.FromDomain(mapping)
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", mapping.TenantID, mapping.ID).
		Save(&model).Error
}

// Ensure GormSupplierMappingRepository implements SupplierMappingRepository
var _ matching.SupplierMappingRepository = (*GormSupplierMappingRepository)(nil)
