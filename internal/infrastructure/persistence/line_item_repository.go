package persistence

import (
	"context"
	"errors"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLineItemRepository implements inbox.LineItemRepository using GORM
type GormLineItemRepository struct {
	db *gorm.DB
}

// NewGormLineItemRepository creates a new GORM-based line item repository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{db: db}
}

// SaveBatch bulk-inserts the line items produced by the parse stage
func (r *GormLineItemRepository) SaveBatch(ctx context.Context, items []*inbox.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.InboxLineItemModel, len(items))
	for i, item := range items {
		if err := rows[i].FromDomain(item); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Update persists changes to a single line item
func (r *GormLineItemRepository) Update(ctx context.Context, item *inbox.LineItem) error {
	var model models.InboxLineItemModel
	if err := model.FromDomain(item); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", item.TenantID, item.ID).
		Save(&model).Error
}

// FindByID finds a line item by ID within a tenant
func (r *GormLineItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inbox.LineItem, error) {
	var model models.InboxLineItemModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inbox.ErrLineItemNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByDocument returns all line items of a document ordered by line number
func (r *GormLineItemRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*inbox.LineItem, error) {
	var rows []models.InboxLineItemModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Order("line_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*inbox.LineItem, len(rows))
	for i := range rows {
		item, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

// Ensure GormLineItemRepository implements LineItemRepository
var _ inbox.LineItemRepository = (*GormLineItemRepository)(nil)
