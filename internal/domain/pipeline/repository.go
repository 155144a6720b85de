package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueRepository defines persistence for pipeline queue units.
type QueueRepository interface {
	// Enqueue persists one or more new units.
	Enqueue(ctx context.Context, units ...*QueueUnit) error
	// ClaimPending atomically moves up to limit eligible units from pending
	// to processing and returns them. A unit is eligible when its attempts
	// are below the ceiling and its NextAttemptAt is unset or not after now.
	// The claim must be safe under concurrent workers.
	ClaimPending(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*QueueUnit, error)
	// Update persists changes to a claimed unit.
	Update(ctx context.Context, unit *QueueUnit) error
	// FindByDocument returns all units for a document in creation order.
	FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) ([]*QueueUnit, error)
}
