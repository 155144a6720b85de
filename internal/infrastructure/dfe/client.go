package dfe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fiscalhub/backend/internal/domain/distribution"
	"github.com/fiscalhub/backend/internal/infrastructure/resilience"
	"github.com/shopspring/decimal"
)

// maxResponseSize is the maximum allowed response size from the service (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Circuit names, one per logical operation.
const (
	circuitRequestBatch  = "dfe.request_batch"
	circuitListDocuments = "dfe.list_documents"
	circuitFetchPayload  = "dfe.fetch_payload"
	circuitAcknowledge   = "dfe.acknowledge"
)

// Client implements distribution.Client against the external tax-document
// API. Every call runs through the retry/circuit-breaker executor under its
// operation's circuit name.
type Client struct {
	config     *Config
	executor   *resilience.Executor
	httpClient *http.Client
}

// NewClient creates a distribution API client.
func NewClient(config *Config, executor *resilience.Executor) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config:   config,
		executor: executor,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// remoteDocumentDTO is the wire shape of one available document.
type remoteDocumentDTO struct {
	ExternalID     string `json:"external_id"`
	AccessKey      string `json:"access_key"`
	Kind           string `json:"kind"`
	IssuerTaxID    string `json:"issuer_tax_id"`
	IssuerName     string `json:"issuer_name"`
	RecipientTaxID string `json:"recipient_tax_id"`
	IssuedAt       string `json:"issued_at"`
	TotalValue     string `json:"total_value"`
	HasPayload     bool   `json:"has_payload"`
}

// listResponse is the wire shape of a document listing page.
type listResponse struct {
	Documents []remoteDocumentDTO `json:"documents"`
}

// payloadResponse is the wire shape of a payload fetch.
type payloadResponse struct {
	Content []byte `json:"content"`
}

// RequestBatch asks the service to prepare a fresh distribution batch.
func (c *Client) RequestBatch(ctx context.Context, issuerTaxID string) error {
	body := map[string]string{"issuer_tax_id": issuerTaxID}
	return c.executor.Do(ctx, circuitRequestBatch, c.config.retryOptions(), func(ctx context.Context) error {
		_, err := c.doRequest(ctx, http.MethodPost, "/distribution/batches", nil, body)
		return err
	})
}

// ListDocuments pages through the available distributed documents.
func (c *Client) ListDocuments(ctx context.Context, offset, limit int) ([]distribution.RemoteDocument, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var respBody []byte
	err := c.executor.Do(ctx, circuitListDocuments, c.config.retryOptions(), func(ctx context.Context) error {
		var err error
		respBody, err = c.doRequest(ctx, http.MethodGet, "/distribution/documents", query, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", distribution.ErrInvalidResponse, err)
	}

	documents := make([]distribution.RemoteDocument, 0, len(resp.Documents))
	for _, dto := range resp.Documents {
		doc, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// FetchPayload retrieves a document's full payload by its external ID.
func (c *Client) FetchPayload(ctx context.Context, externalID string) ([]byte, error) {
	path := fmt.Sprintf("/distribution/documents/%s/payload", url.PathEscape(externalID))

	var respBody []byte
	err := c.executor.Do(ctx, circuitFetchPayload, c.config.retryOptions(), func(ctx context.Context) error {
		var err error
		respBody, err = c.doRequest(ctx, http.MethodGet, path, nil, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	var resp payloadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", distribution.ErrInvalidResponse, err)
	}
	return resp.Content, nil
}

// Acknowledge submits an acknowledgment event for a document.
func (c *Client) Acknowledge(ctx context.Context, event distribution.AckEvent) error {
	body := map[string]string{
		"recipient_tax_id": event.RecipientTaxID,
		"access_key":       event.AccessKey,
		"operation_code":   event.OperationCode,
	}
	if event.Justification != "" {
		body["justification"] = event.Justification
	}
	return c.executor.Do(ctx, circuitAcknowledge, c.config.retryOptions(), func(ctx context.Context) error {
		_, err := c.doRequest(ctx, http.MethodPost, "/events", nil, body)
		return err
	})
}

// doRequest performs one HTTP attempt against the service. Non-2xx statuses
// surface as resilience.StatusError so the executor can classify them.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.NewStatusError(resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// toDomain converts the wire DTO to the domain representation.
func (dto remoteDocumentDTO) toDomain() (distribution.RemoteDocument, error) {
	issuedAt, err := time.Parse(time.RFC3339, dto.IssuedAt)
	if err != nil {
		return distribution.RemoteDocument{}, fmt.Errorf("%w: issued_at: %v", distribution.ErrInvalidResponse, err)
	}

	totalValue := decimal.Zero
	if dto.TotalValue != "" {
		totalValue, err = decimal.NewFromString(dto.TotalValue)
		if err != nil {
			return distribution.RemoteDocument{}, fmt.Errorf("%w: total_value: %v", distribution.ErrInvalidResponse, err)
		}
	}

	return distribution.RemoteDocument{
		ExternalID:     dto.ExternalID,
		AccessKey:      dto.AccessKey,
		Kind:           dto.Kind,
		IssuerTaxID:    dto.IssuerTaxID,
		IssuerName:     dto.IssuerName,
		RecipientTaxID: dto.RecipientTaxID,
		IssuedAt:       issuedAt,
		TotalValue:     totalValue,
		HasPayload:     dto.HasPayload,
	}, nil
}

var _ distribution.Client = (*Client)(nil)
