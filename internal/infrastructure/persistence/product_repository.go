package persistence

import (
	"context"
	"errors"

	"github.com/fiscalhub/backend/internal/domain/catalog"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductReader using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GORM-based product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID within a tenant
func (r *GormProductRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBarcode finds an active product carrying the given barcode
func (r *GormProductRepository) FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*catalog.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND barcode = ? AND active = true", tenantID, barcode).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByClassification returns active products sharing a classification code
func (r *GormProductRepository) FindByClassification(ctx context.Context, tenantID uuid.UUID, classificationCode string) ([]catalog.Product, error) {
	var rows []models.ProductModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND classification_code = ? AND active = true", tenantID, classificationCode).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Ensure GormProductRepository implements ProductReader
var _ catalog.ProductReader = (*GormProductRepository)(nil)
