package persistence

import (
	"context"
	"errors"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements inbox.DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GORM-based document repository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// Save inserts a new document
func (r *GormDocumentRepository) Save(ctx context.Context, doc *inbox.Document) error {
	model := &models.InboxDocumentModel{}
	model.FromDomain(doc)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing document
func (r *GormDocumentRepository) Update(ctx context.Context, doc *inbox.Document) error {
	model := &models.InboxDocumentModel{}
	model.FromDomain(doc)
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", doc.TenantID, doc.ID).
		Save(model).Error
}

// FindByID finds a document by ID within a tenant
func (r *GormDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inbox.Document, error) {
	var model models.InboxDocumentModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inbox.ErrDocumentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAccessKey finds a document by its access key within a tenant
func (r *GormDocumentRepository) FindByAccessKey(ctx context.Context, tenantID uuid.UUID, accessKey string) (*inbox.Document, error) {
	var model models.InboxDocumentModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND access_key = ?", tenantID, accessKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inbox.ErrDocumentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByAccessKey is the dedup check used by the collector
func (r *GormDocumentRepository) ExistsByAccessKey(ctx context.Context, tenantID uuid.UUID, accessKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InboxDocumentModel{}).
		Where("tenant_id = ? AND access_key = ?", tenantID, accessKey).
		Count(&count).Error
	return count > 0, err
}

// FindAll lists documents for a tenant with optional filters
func (r *GormDocumentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter inbox.DocumentFilter) ([]inbox.Document, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InboxDocumentModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IssuerTaxID != "" {
		query = query.Where("issuer_tax_id = ?", filter.IssuerTaxID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var rows []models.InboxDocumentModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	docs := make([]inbox.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, total, nil
}

// FindUnacknowledgedByIssuers returns unacknowledged documents for a set of issuers
func (r *GormDocumentRepository) FindUnacknowledgedByIssuers(ctx context.Context, tenantID uuid.UUID, issuerTaxIDs []string) ([]inbox.Document, error) {
	if len(issuerTaxIDs) == 0 {
		return nil, nil
	}

	var rows []models.InboxDocumentModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND acknowledged = false AND issuer_tax_id IN ?", tenantID, issuerTaxIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	docs := make([]inbox.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, nil
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ inbox.DocumentRepository = (*GormDocumentRepository)(nil)
