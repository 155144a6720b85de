package persistence

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTrustedIssuerRepository implements inbox.TrustedIssuerRepository using GORM
type GormTrustedIssuerRepository struct {
	db *gorm.DB
}

// NewGormTrustedIssuerRepository creates a new GORM-based trusted issuer repository
func NewGormTrustedIssuerRepository(db *gorm.DB) *GormTrustedIssuerRepository {
	return &GormTrustedIssuerRepository{db: db}
}

// Save inserts or updates a trusted issuer
func (r *GormTrustedIssuerRepository) Save(ctx context.Context, issuer *inbox.TrustedIssuer) error {
	var model models.TrustedIssuerModel
	model.FromDomain(issuer)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "tax_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"name", "auto_acknowledge", "active", "updated_at"}),
		}).
		Create(&model).Error
}

// FindAutoAcknowledge returns active issuers with auto-acknowledgment enabled
func (r *GormTrustedIssuerRepository) FindAutoAcknowledge(ctx context.Context, tenantID uuid.UUID) ([]inbox.TrustedIssuer, error) {
	var rows []models.TrustedIssuerModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = true AND auto_acknowledge = true", tenantID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	issuers := make([]inbox.TrustedIssuer, len(rows))
	for i := range rows {
		issuers[i] = *rows[i].ToDomain()
	}
	return issuers, nil
}

// Ensure GormTrustedIssuerRepository implements TrustedIssuerRepository
var _ inbox.TrustedIssuerRepository = (*GormTrustedIssuerRepository)(nil)
