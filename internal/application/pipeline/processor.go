package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of queue units drained per invocation.
const DefaultBatchSize = 50

// BatchResult reports the outcome of one ProcessQueue invocation. A batch
// never aborts on a single bad unit: the caller sees "N succeeded, M failed".
type BatchResult struct {
	Processed int      `json:"processed"`
	Errors    int      `json:"errors"`
	Failures  []string `json:"failures,omitempty"`
}

// ProductMatcher is the matching engine consumed by the match stage.
type ProductMatcher interface {
	Match(ctx context.Context, tenantID uuid.UUID, item matching.Item) (matching.Result, error)
}

// Processor drains the persisted work queue and advances each unit through
// its stage. Units are processed sequentially in claim order; retry spacing
// is expressed through each unit's NextAttemptAt, not by sleeping here.
type Processor struct {
	queue       pipeline.QueueRepository
	documents   inbox.DocumentRepository
	lineItems   inbox.LineItemRepository
	matcher     ProductMatcher
	audit       shared.AuditSink
	logger      *zap.Logger
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// NewProcessor creates a queue processor with the default batch size.
func NewProcessor(
	queue pipeline.QueueRepository,
	documents inbox.DocumentRepository,
	lineItems inbox.LineItemRepository,
	matcher ProductMatcher,
	audit shared.AuditSink,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		queue:       queue,
		documents:   documents,
		lineItems:   lineItems,
		matcher:     matcher,
		audit:       audit,
		logger:      logger,
		batchSize:   DefaultBatchSize,
		maxAttempts: pipeline.DefaultMaxAttempts,
		now:         time.Now,
	}
}

// SetBatchSize overrides the number of units claimed per invocation.
// Values below one are ignored.
func (p *Processor) SetBatchSize(n int) {
	if n > 0 {
		p.batchSize = n
	}
}

// SetMaxAttempts overrides the retry ceiling applied to follow-on units
// this processor creates. Values below one are ignored.
func (p *Processor) SetMaxAttempts(n int) {
	if n > 0 {
		p.maxAttempts = n
	}
}

// ProcessQueue claims up to one batch of eligible pending units for the
// tenant and runs each through its stage handler.
func (p *Processor) ProcessQueue(ctx context.Context, tenantID uuid.UUID) (BatchResult, error) {
	if tenantID == uuid.Nil {
		return BatchResult{}, inbox.ErrDocumentInvalidTenantID
	}

	units, err := p.queue.ClaimPending(ctx, tenantID, p.now(), p.batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("claiming queue units: %w", err)
	}

	result := BatchResult{}
	for _, unit := range units {
		if err := p.processUnit(ctx, unit); err != nil {
			result.Errors++
			result.Failures = append(result.Failures, fmt.Sprintf("%s %s: %v", unit.Stage, unit.DocumentID, err))
			continue
		}
		result.Processed++
	}

	p.logger.Info("queue batch processed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// processUnit dispatches one claimed unit and settles its outcome. On
// success the stage's follow-on unit (if any) is enqueued before the unit
// retires, so a failed enqueue reschedules this unit instead of losing the
// next stage. On failure the unit returns to pending, or turns terminal at
// the attempt ceiling; a document still stuck in processing then turns
// error for operator inspection.
func (p *Processor) processUnit(ctx context.Context, unit *pipeline.QueueUnit) error {
	followOn, err := p.dispatch(ctx, unit)
	if err == nil && followOn != nil {
		followOn.SetMaxAttempts(p.maxAttempts)
		if enqueueErr := p.queue.Enqueue(ctx, followOn); enqueueErr != nil {
			err = fmt.Errorf("enqueueing %s unit: %w", followOn.Stage, enqueueErr)
		}
	}
	if err != nil {
		unit.MarkFailed(err.Error())
		if updateErr := p.queue.Update(ctx, unit); updateErr != nil {
			p.logger.Error("failed to persist unit failure", zap.Error(updateErr))
		}
		if unit.Status == pipeline.UnitStatusError {
			p.audit.Record(ctx, shared.NewAuditEvent(unit.TenantID, "queue_unit", unit.ID, "exhausted", unit.LastError))
			p.logger.Warn("queue unit exhausted retries",
				zap.String("unit_id", unit.ID.String()),
				zap.String("document_id", unit.DocumentID.String()),
				zap.String("stage", string(unit.Stage)),
				zap.Int("attempts", unit.Attempts),
				zap.String("last_error", unit.LastError),
			)
			p.flagStuckDocument(ctx, unit)
		}
		return err
	}

	unit.MarkDone()
	if err := p.queue.Update(ctx, unit); err != nil {
		return fmt.Errorf("retiring unit: %w", err)
	}
	p.audit.Record(ctx, shared.NewAuditEvent(unit.TenantID, "queue_unit", unit.ID, "done", string(unit.Stage)))
	return nil
}

// flagStuckDocument turns a mid-processing document into error once its
// unit exhausted retries. A document that already reached a reviewable
// status stays wherever it was. Failures here are logged only; the unit's
// own failure already surfaced to the batch.
func (p *Processor) flagStuckDocument(ctx context.Context, unit *pipeline.QueueUnit) {
	doc, err := p.documents.FindByID(ctx, unit.TenantID, unit.DocumentID)
	if err != nil {
		p.logger.Error("failed to load document of exhausted unit", zap.Error(err))
		return
	}
	if doc.MarkError() != nil {
		return
	}
	if err := p.documents.Update(ctx, doc); err != nil {
		p.logger.Error("failed to flag document error", zap.Error(err))
		return
	}
	p.audit.Record(ctx, shared.NewAuditEvent(doc.TenantID, "document", doc.ID, "errored", unit.LastError))
}

// dispatch routes a unit to its stage handler.
func (p *Processor) dispatch(ctx context.Context, unit *pipeline.QueueUnit) (*pipeline.QueueUnit, error) {
	switch unit.Stage {
	case pipeline.StageParseXML:
		return p.handleParse(ctx, unit)
	case pipeline.StageMatchProducts:
		return p.handleMatch(ctx, unit)
	case pipeline.StageGenerateProposal:
		return p.handlePropose(ctx, unit)
	default:
		return nil, pipeline.ErrUnitInvalidStage
	}
}
