package models

import (
	"time"

	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/google/uuid"
)

// QueueUnitModel is the persistence model for pipeline queue units.
type QueueUnitModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_queue_tenant_status,priority:1"`
	DocumentID    uuid.UUID           `gorm:"type:uuid;not null;index:idx_queue_document"`
	Stage         pipeline.Stage      `gorm:"type:varchar(20);not null"`
	Status        pipeline.UnitStatus `gorm:"type:varchar(20);default:pending;index:idx_queue_tenant_status,priority:2"`
	Attempts      int                 `gorm:"default:0"`
	MaxAttempts   int                 `gorm:"default:3"`
	LastError     string              `gorm:"type:text"`
	Payload       []byte              `gorm:"type:jsonb"`
	NextAttemptAt *time.Time          `gorm:"index:idx_queue_next_attempt"`
	ProcessedAt   *time.Time
	CreatedAt     time.Time `gorm:"not null;default:now()"`
	UpdatedAt     time.Time `gorm:"not null;default:now()"`
}

// TableName returns the table name for GORM
func (QueueUnitModel) TableName() string {
	return "processing_queue"
}

// ToDomain converts the persistence model to a domain QueueUnit
func (m *QueueUnitModel) ToDomain() *pipeline.QueueUnit {
	return &pipeline.QueueUnit{
		ID:            m.ID,
		TenantID:      m.TenantID,
		DocumentID:    m.DocumentID,
		Stage:         m.Stage,
		Status:        m.Status,
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		LastError:     m.LastError,
		Payload:       m.Payload,
		NextAttemptAt: m.NextAttemptAt,
		ProcessedAt:   m.ProcessedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain QueueUnit
func (m *QueueUnitModel) FromDomain(u *pipeline.QueueUnit) {
	m.ID = u.ID
	m.TenantID = u.TenantID
	m.DocumentID = u.DocumentID
	m.Stage = u.Stage
	m.Status = u.Status
	m.Attempts = u.Attempts
	m.MaxAttempts = u.MaxAttempts
	m.LastError = u.LastError
	m.Payload = u.Payload
	m.NextAttemptAt = u.NextAttemptAt
	m.ProcessedAt = u.ProcessedAt
	m.CreatedAt = u.CreatedAt
	m.UpdatedAt = u.UpdatedAt
}
