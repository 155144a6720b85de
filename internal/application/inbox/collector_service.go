package inbox

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/fiscalhub/backend/internal/domain/distribution"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// collectPageSize is the fixed page size used when listing remote documents.
const collectPageSize = 50

// CollectResult reports one collection run. Failures are accumulated, never
// thrown: a single bad document must not block the rest of the batch.
type CollectResult struct {
	NewDocuments int      `json:"new_documents"`
	Acknowledged int      `json:"acknowledged"`
	Errors       []string `json:"errors,omitempty"`
}

// Success is true when the run completed without any per-document failure.
func (r CollectResult) Success() bool {
	return len(r.Errors) == 0
}

// CollectorService pulls documents from the external distribution service,
// deduplicates them by access key and enqueues new ones for processing.
type CollectorService struct {
	client      distribution.Client
	documents   inbox.DocumentRepository
	issuers     inbox.TrustedIssuerRepository
	queue       pipeline.QueueRepository
	audit       shared.AuditSink
	logger      *zap.Logger
	maxAttempts int
}

// NewCollectorService creates a collector.
func NewCollectorService(
	client distribution.Client,
	documents inbox.DocumentRepository,
	issuers inbox.TrustedIssuerRepository,
	queue pipeline.QueueRepository,
	audit shared.AuditSink,
	logger *zap.Logger,
) *CollectorService {
	return &CollectorService{
		client:      client,
		documents:   documents,
		issuers:     issuers,
		queue:       queue,
		audit:       audit,
		logger:      logger,
		maxAttempts: pipeline.DefaultMaxAttempts,
	}
}

// SetMaxAttempts overrides the retry ceiling applied to the parse units
// this collector enqueues. Values below one are ignored.
func (s *CollectorService) SetMaxAttempts(n int) {
	if n > 0 {
		s.maxAttempts = n
	}
}

// Collect requests a fresh distribution batch, pages through the available
// remote documents, persists the unseen ones and enqueues a parse unit for
// each document whose payload was retrieved. It finishes with automatic
// acknowledgment for trusted issuers.
func (s *CollectorService) Collect(ctx context.Context, tenantID uuid.UUID, issuerTaxID string) (CollectResult, error) {
	if tenantID == uuid.Nil {
		return CollectResult{}, inbox.ErrDocumentInvalidTenantID
	}

	result := CollectResult{}

	// A batch-request failure is recorded but does not abort the run: the
	// service may still have documents from earlier batches to hand out.
	if err := s.client.RequestBatch(ctx, issuerTaxID); err != nil {
		s.logger.Warn("distribution batch request failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		result.Errors = append(result.Errors, fmt.Sprintf("request batch: %v", err))
	}

	for offset := 0; ; offset += collectPageSize {
		remotes, err := s.client.ListDocuments(ctx, offset, collectPageSize)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("list documents at offset %d: %v", offset, err))
			break
		}

		for _, remote := range remotes {
			if err := s.ingestRemote(ctx, tenantID, remote, &result); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("document %s: %v", remote.AccessKey, err))
			}
		}

		if len(remotes) < collectPageSize {
			break
		}
	}

	s.autoAcknowledge(ctx, tenantID, &result)

	s.logger.Info("collection run finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("new_documents", result.NewDocuments),
		zap.Int("acknowledged", result.Acknowledged),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// ingestRemote persists one remote document unless its access key is already
// known. A dedup hit is a silent no-op, not an error.
func (s *CollectorService) ingestRemote(ctx context.Context, tenantID uuid.UUID, remote distribution.RemoteDocument, result *CollectResult) error {
	exists, err := s.documents.ExistsByAccessKey(ctx, tenantID, remote.AccessKey)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	kind := inbox.DocumentKindOther
	if remote.Kind == string(inbox.DocumentKindInvoice) {
		kind = inbox.DocumentKindInvoice
	}
	doc, err := inbox.NewDocument(tenantID, kind, remote.AccessKey, inbox.OriginAutomatic)
	if err != nil {
		return err
	}
	doc.IssuedAt = remote.IssuedAt
	doc.IssuerTaxID = remote.IssuerTaxID
	doc.IssuerName = remote.IssuerName
	doc.RecipientTaxID = remote.RecipientTaxID
	doc.TotalValue = remote.TotalValue

	// The payload fetch is best-effort: a document inserted without one
	// simply has no queue unit yet and sits pending with zero progress.
	if remote.HasPayload {
		payload, err := s.client.FetchPayload(ctx, remote.ExternalID)
		if err != nil {
			s.logger.Warn("payload fetch failed, inserting document without payload",
				zap.String("access_key", remote.AccessKey),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("fetch payload %s: %v", remote.AccessKey, err))
		} else {
			doc.RawPayload = payload
		}
	}

	if err := s.documents.Save(ctx, doc); err != nil {
		return err
	}
	result.NewDocuments++
	s.audit.Record(ctx, shared.NewAuditEvent(tenantID, "document", doc.ID, "collected", doc.AccessKey))

	if doc.HasPayload() {
		unit, err := pipeline.NewQueueUnit(tenantID, doc.ID, pipeline.StageParseXML, nil)
		if err != nil {
			return err
		}
		unit.SetMaxAttempts(s.maxAttempts)
		if err := s.queue.Enqueue(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}

// autoAcknowledge submits an awareness event for every unacknowledged
// document issued by a trusted issuer with auto-acknowledgment enabled.
// Failures are logged per document and never stop the loop.
func (s *CollectorService) autoAcknowledge(ctx context.Context, tenantID uuid.UUID, result *CollectResult) {
	issuers, err := s.issuers.FindAutoAcknowledge(ctx, tenantID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("load trusted issuers: %v", err))
		return
	}
	if len(issuers) == 0 {
		return
	}

	taxIDs := make([]string, 0, len(issuers))
	for _, issuer := range issuers {
		taxIDs = append(taxIDs, issuer.TaxID)
	}

	docs, err := s.documents.FindUnacknowledgedByIssuers(ctx, tenantID, taxIDs)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list unacknowledged documents: %v", err))
		return
	}

	for i := range docs {
		doc := &docs[i]
		event := distribution.AckEvent{
			RecipientTaxID: doc.RecipientTaxID,
			AccessKey:      doc.AccessKey,
			OperationCode:  inbox.AckAwareness.OperationCode(),
		}
		if err := s.client.Acknowledge(ctx, event); err != nil {
			s.logger.Warn("automatic acknowledgment failed",
				zap.String("access_key", doc.AccessKey),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("acknowledge %s: %v", doc.AccessKey, err))
			continue
		}

		doc.MarkAcknowledged()
		if err := s.documents.Update(ctx, doc); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("update %s: %v", doc.AccessKey, err))
			continue
		}
		result.Acknowledged++
		s.audit.Record(ctx, shared.NewAuditEvent(tenantID, "document", doc.ID, "auto_acknowledged", string(inbox.AckAwareness)))
	}
}

// importEnvelope extracts the access key from a raw invoice payload.
type importEnvelope struct {
	XMLName xml.Name `xml:"nfeProc"`
	Inf     struct {
		ID string `xml:"Id,attr"`
	} `xml:"NFe>infNFe"`
	Prot struct {
		AccessKey string `xml:"chNFe"`
	} `xml:"protNFe>infProt"`
}

// extractAccessKey pulls the 44-character access key out of a payload,
// preferring the protocol block and falling back to the infNFe Id attribute.
func extractAccessKey(payload []byte) (string, error) {
	var envelope importEnvelope
	if err := xml.Unmarshal(payload, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if key := strings.TrimSpace(envelope.Prot.AccessKey); len(key) == inbox.AccessKeyLength {
		return key, nil
	}
	key := strings.TrimPrefix(strings.TrimSpace(envelope.Inf.ID), "NFe")
	if len(key) != inbox.AccessKeyLength {
		return "", inbox.ErrDocumentInvalidAccessKey
	}
	return key, nil
}

// ManualImport ingests a payload supplied directly by an operator. It shares
// the collection dedup/insert/enqueue path but reports a conflict when the
// access key already exists.
func (s *CollectorService) ManualImport(ctx context.Context, tenantID uuid.UUID, payload []byte, kind inbox.DocumentKind) (*inbox.Document, error) {
	if tenantID == uuid.Nil {
		return nil, inbox.ErrDocumentInvalidTenantID
	}
	if len(payload) == 0 {
		return nil, shared.ErrInvalidInput
	}

	accessKey, err := extractAccessKey(payload)
	if err != nil {
		return nil, err
	}

	exists, err := s.documents.ExistsByAccessKey(ctx, tenantID, accessKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, inbox.ErrDocumentAlreadyExists
	}

	doc, err := inbox.NewDocument(tenantID, kind, accessKey, inbox.OriginManual)
	if err != nil {
		return nil, err
	}
	doc.RawPayload = payload

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, shared.NewAuditEvent(tenantID, "document", doc.ID, "imported", accessKey))

	unit, err := pipeline.NewQueueUnit(tenantID, doc.ID, pipeline.StageParseXML, nil)
	if err != nil {
		return nil, err
	}
	unit.SetMaxAttempts(s.maxAttempts)
	if err := s.queue.Enqueue(ctx, unit); err != nil {
		return nil, err
	}
	return doc, nil
}

// Acknowledge submits a manifestation event chosen by an operator for one
// document and records the local acknowledgment on success.
func (s *CollectorService) Acknowledge(ctx context.Context, tenantID, userID uuid.UUID, issuerTaxID string, documentID uuid.UUID, kind inbox.AcknowledgmentKind, justification string) error {
	if tenantID == uuid.Nil {
		return inbox.ErrDocumentInvalidTenantID
	}
	if err := inbox.ValidateAcknowledgment(kind, justification); err != nil {
		return err
	}

	doc, err := s.documents.FindByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}

	event := distribution.AckEvent{
		RecipientTaxID: doc.RecipientTaxID,
		AccessKey:      doc.AccessKey,
		OperationCode:  kind.OperationCode(),
		Justification:  justification,
	}
	if err := s.client.Acknowledge(ctx, event); err != nil {
		return err
	}

	doc.MarkAcknowledged()
	if err := s.documents.Update(ctx, doc); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.NewAuditEvent(tenantID, "document", doc.ID, "acknowledged", fmt.Sprintf("%s by %s", kind, userID)))
	return nil
}
