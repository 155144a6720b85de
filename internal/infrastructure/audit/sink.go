package audit

import (
	"context"

	"github.com/fiscalhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ZapSink is an append-only audit log backed by the structured logger. By
// contract an audit write must never abort the operation it is auditing, so
// Record has no failure path at all.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates an audit sink writing to a named logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("audit")}
}

// Record implements shared.AuditSink.
func (s *ZapSink) Record(ctx context.Context, event shared.AuditEvent) {
	s.logger.Info("state transition",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("aggregate_type", event.AggregateType),
		zap.String("aggregate_id", event.AggregateID.String()),
		zap.String("action", event.Action),
		zap.String("detail", event.Detail),
		zap.Time("occurred_at", event.OccurredAt),
	)
}

var _ shared.AuditSink = (*ZapSink)(nil)
