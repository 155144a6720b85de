package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEvent records a single state transition somewhere in the pipeline.
type AuditEvent struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewAuditEvent creates an audit event stamped with the current time.
func NewAuditEvent(tenantID uuid.UUID, aggregateType string, aggregateID uuid.UUID, action, detail string) AuditEvent {
	return AuditEvent{
		TenantID:      tenantID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Action:        action,
		Detail:        detail,
		OccurredAt:    time.Now(),
	}
}

// AuditSink is an append-only log of state transitions. Implementations must
// never fail the operation being audited: Record has no error return and any
// internal failure is logged and swallowed.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// NopAuditSink discards every event. Useful in tests.
type NopAuditSink struct{}

// Record implements AuditSink.
func (NopAuditSink) Record(ctx context.Context, event AuditEvent) {}
