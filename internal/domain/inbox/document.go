package inbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccessKeyLength is the fixed length of a fiscal document access key.
const AccessKeyLength = 44

// DocumentKind classifies the received fiscal document.
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "nfe"
	DocumentKindOther   DocumentKind = "other"
)

// IsValid returns true for a known document kind.
func (k DocumentKind) IsValid() bool {
	return k == DocumentKindInvoice || k == DocumentKindOther
}

// DocumentStatus is the processing status of a received document.
type DocumentStatus string

const (
	DocumentStatusPending         DocumentStatus = "pending"
	DocumentStatusProcessing      DocumentStatus = "processing"
	DocumentStatusPendingMatching DocumentStatus = "pending_matching"
	DocumentStatusReadyToBook     DocumentStatus = "ready_to_book"
	DocumentStatusBooked          DocumentStatus = "booked"
	DocumentStatusError           DocumentStatus = "error"
)

// CaptureOrigin records how a document entered the inbox.
type CaptureOrigin string

const (
	OriginAutomatic CaptureOrigin = "automatic"
	OriginManual    CaptureOrigin = "manual"
)

// Document validation errors
var (
	ErrDocumentInvalidTenantID  = errors.New("inbox: invalid tenant ID")
	ErrDocumentInvalidAccessKey = errors.New("inbox: access key must be 44 characters")
	ErrDocumentInvalidKind      = errors.New("inbox: invalid document kind")
	ErrDocumentInvalidState     = errors.New("inbox: operation not allowed in current document status")
	ErrDocumentNotFound         = errors.New("inbox: document not found")
	ErrDocumentAlreadyExists    = errors.New("inbox: document with this access key already exists")
)

// Document is one received fiscal document for a tenant. The pair
// (TenantID, AccessKey) is unique: re-ingestion of a known key is a no-op
// at the collector level, never a second row.
type Document struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Kind            DocumentKind
	AccessKey       string
	IssuedAt        time.Time
	IssuerTaxID     string
	IssuerName      string
	RecipientTaxID  string
	TotalValue      decimal.Decimal
	Status          DocumentStatus
	RawPayload      []byte
	MatchedItems    int
	PendingItems    int
	ProposalPayload []byte
	Origin          CaptureOrigin
	Acknowledged    bool
	AcknowledgedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewDocument creates a pending document on first sighting of an access key.
func NewDocument(tenantID uuid.UUID, kind DocumentKind, accessKey string, origin CaptureOrigin) (*Document, error) {
	if tenantID == uuid.Nil {
		return nil, ErrDocumentInvalidTenantID
	}
	if len(accessKey) != AccessKeyLength {
		return nil, ErrDocumentInvalidAccessKey
	}
	if !kind.IsValid() {
		return nil, ErrDocumentInvalidKind
	}

	now := time.Now()
	return &Document{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Kind:       kind,
		AccessKey:  accessKey,
		TotalValue: decimal.Zero,
		Status:     DocumentStatusPending,
		Origin:     origin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// MarkProcessing moves a pending document into a processing stage.
func (d *Document) MarkProcessing() error {
	switch d.Status {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusPendingMatching:
		d.Status = DocumentStatusProcessing
		d.UpdatedAt = time.Now()
		return nil
	default:
		return ErrDocumentInvalidState
	}
}

// MarkPendingMatching records that some line items still need manual matching.
func (d *Document) MarkPendingMatching(matched, pending int) {
	d.Status = DocumentStatusPendingMatching
	d.MatchedItems = matched
	d.PendingItems = pending
	d.UpdatedAt = time.Now()
}

// MarkReadyToBook records that a booking proposal is available for review.
func (d *Document) MarkReadyToBook() {
	d.Status = DocumentStatusReadyToBook
	d.UpdatedAt = time.Now()
}

// MarkError flags a document whose pipeline gave up mid-processing. Only a
// processing document can turn error; a document that already reached a
// reviewable status stays where it was when a later unit exhausts retries.
func (d *Document) MarkError() error {
	if d.Status != DocumentStatusProcessing {
		return ErrDocumentInvalidState
	}
	d.Status = DocumentStatusError
	d.UpdatedAt = time.Now()
	return nil
}

// MarkAcknowledged records a successful acknowledgment event submission.
func (d *Document) MarkAcknowledged() {
	now := time.Now()
	d.Acknowledged = true
	d.AcknowledgedAt = &now
	d.UpdatedAt = now
}

// SetParsedData writes the totals and parties extracted by the parse stage.
func (d *Document) SetParsedData(issuedAt time.Time, issuerTaxID, issuerName, recipientTaxID string, totalValue decimal.Decimal) {
	d.IssuedAt = issuedAt
	d.IssuerTaxID = issuerTaxID
	d.IssuerName = issuerName
	d.RecipientTaxID = recipientTaxID
	d.TotalValue = totalValue
	d.UpdatedAt = time.Now()
}

// SetProposal stores the generated booking proposal verbatim.
func (d *Document) SetProposal(payload []byte) {
	d.ProposalPayload = payload
	d.UpdatedAt = time.Now()
}

// HasPayload returns true when the raw document payload was retrieved.
func (d *Document) HasPayload() bool {
	return len(d.RawPayload) > 0
}
