package persistence

import (
	"context"
	"time"

	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormQueueRepository implements pipeline.QueueRepository using GORM
type GormQueueRepository struct {
	db *gorm.DB
}

// NewGormQueueRepository creates a new GORM-based queue repository
func NewGormQueueRepository(db *gorm.DB) *GormQueueRepository {
	return &GormQueueRepository{db: db}
}

// Enqueue persists one or more new units
func (r *GormQueueRepository) Enqueue(ctx context.Context, units ...*pipeline.QueueUnit) error {
	if len(units) == 0 {
		return nil
	}
	rows := make([]models.QueueUnitModel, len(units))
	for i, unit := range units {
		rows[i].FromDomain(unit)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ClaimPending atomically moves up to limit eligible units from pending to
// processing. Rows are locked with SKIP LOCKED so concurrent workers never
// claim the same unit twice.
func (r *GormQueueRepository) ClaimPending(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*pipeline.QueueUnit, error) {
	var claimed []models.QueueUnitModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.QueueUnitModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("tenant_id = ? AND status = ? AND attempts < max_attempts", tenantID, pipeline.UnitStatusPending).
			Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
			Order("created_at ASC").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		err = tx.Model(&models.QueueUnitModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     pipeline.UnitStatusProcessing,
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}

		for i := range rows {
			rows[i].Status = pipeline.UnitStatusProcessing
			rows[i].UpdatedAt = now
		}
		claimed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	units := make([]*pipeline.QueueUnit, len(claimed))
	for i := range claimed {
		units[i] = claimed[i].ToDomain()
	}
	return units, nil
}

// Update persists changes to a claimed unit
func (r *GormQueueRepository) Update(ctx context.Context, unit *pipeline.QueueUnit) error {
	var model models.QueueUnitModel
	model.FromDomain(unit)
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", unit.TenantID, unit.ID).
		Save(&model).Error
}

// FindByDocument returns all units for a document in creation order
func (r *GormQueueRepository) FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*pipeline.QueueUnit, error) {
	var rows []models.QueueUnitModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	units := make([]*pipeline.QueueUnit, len(rows))
	for i := range rows {
		units[i] = rows[i].ToDomain()
	}
	return units, nil
}

// Ensure GormQueueRepository implements QueueRepository
var _ pipeline.QueueRepository = (*GormQueueRepository)(nil)
