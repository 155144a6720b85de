package distribution

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Client errors
var (
	ErrNotConfigured   = errors.New("distribution: service not configured for tenant")
	ErrInvalidResponse = errors.New("distribution: invalid response from service")
)

// RemoteDocument is one document available on the distribution service.
type RemoteDocument struct {
	ExternalID     string
	AccessKey      string
	Kind           string
	IssuerTaxID    string
	IssuerName     string
	RecipientTaxID string
	IssuedAt       time.Time
	TotalValue     decimal.Decimal
	HasPayload     bool
}

// AckEvent is an acknowledgment (manifestation) event submitted for a
// document. OperationCode is the fixed wire code for the event kind;
// Justification is required by some kinds and validated upstream.
type AckEvent struct {
	RecipientTaxID string
	AccessKey      string
	OperationCode  string
	Justification  string
}

// Client is the boundary to the external tax-document distribution service.
// Implementations wrap every call in the retry/circuit-breaker layer; a
// method returning an error may therefore represent an exhausted retry
// budget or a fast-failed open circuit.
type Client interface {
	// RequestBatch asks the service to prepare a fresh distribution batch
	// for documents issued against the given tax ID.
	RequestBatch(ctx context.Context, issuerTaxID string) error
	// ListDocuments pages through the available distributed documents.
	ListDocuments(ctx context.Context, offset, limit int) ([]RemoteDocument, error)
	// FetchPayload retrieves a document's full payload by its external ID.
	FetchPayload(ctx context.Context, externalID string) ([]byte, error)
	// Acknowledge submits an acknowledgment event for a document.
	Acknowledge(ctx context.Context, event AckEvent) error
}
