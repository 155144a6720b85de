package handler

import (
	"time"

	appinbox "github.com/fiscalhub/backend/internal/application/inbox"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
)

// CollectRequest is the body of a collection run trigger
type CollectRequest struct {
	IssuerTaxID string `json:"issuer_tax_id"`
}

// CollectResponse summarizes one collection run
type CollectResponse struct {
	NewDocuments int      `json:"new_documents"`
	Acknowledged int      `json:"acknowledged"`
	Errors       []string `json:"errors,omitempty"`
}

// ImportRequest is the body of a manual XML import
type ImportRequest struct {
	Payload string `json:"payload" binding:"required"`
	Kind    string `json:"kind"`
}

// AcknowledgeRequest is the body of a manifestation request
type AcknowledgeRequest struct {
	DocumentID    string `json:"document_id" binding:"required,uuid"`
	Kind          string `json:"kind" binding:"required"`
	IssuerTaxID   string `json:"issuer_tax_id"`
	Justification string `json:"justification"`
}

// DocumentListRequest holds list filters for inbox documents
type DocumentListRequest struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status      string `form:"status"`
	IssuerTaxID string `form:"issuer_tax_id"`
}

// SuggestionResponse is one fuzzy match candidate on a line item
type SuggestionResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
}

// LineItemResponse represents one document line in responses
type LineItemResponse struct {
	ID                 string               `json:"id"`
	LineNumber         int                  `json:"line_number"`
	SupplierCode       string               `json:"supplier_code"`
	Description        string               `json:"description"`
	Unit               string               `json:"unit"`
	ClassificationCode string               `json:"classification_code"`
	Barcode            string               `json:"barcode,omitempty"`
	Quantity           string               `json:"quantity"`
	UnitPrice          string               `json:"unit_price"`
	ProductID          *string              `json:"product_id,omitempty"`
	MatchStatus        string               `json:"match_status"`
	MatchScore         int                  `json:"match_score"`
	MatchMethod        string               `json:"match_method,omitempty"`
	Suggestions        []SuggestionResponse `json:"suggestions,omitempty"`
}

// DocumentResponse represents an inbox document in responses
type DocumentResponse struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	AccessKey      string     `json:"access_key"`
	IssuedAt       time.Time  `json:"issued_at"`
	IssuerTaxID    string     `json:"issuer_tax_id"`
	IssuerName     string     `json:"issuer_name"`
	RecipientTaxID string     `json:"recipient_tax_id"`
	TotalValue     string     `json:"total_value"`
	Status         string     `json:"status"`
	MatchedItems   int        `json:"matched_items"`
	PendingItems   int        `json:"pending_items"`
	Origin         string     `json:"origin"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// QueueUnitResponse represents one pipeline unit in responses
type QueueUnitResponse struct {
	ID            string     `json:"id"`
	Stage         string     `json:"stage"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	LastError     string     `json:"last_error,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DocumentDetailResponse is one document with line items and queue history
type DocumentDetailResponse struct {
	DocumentResponse
	LineItems []LineItemResponse  `json:"line_items"`
	Pipeline  []QueueUnitResponse `json:"pipeline"`
}

func toCollectResponse(result appinbox.CollectResult) CollectResponse {
	return CollectResponse{
		NewDocuments: result.NewDocuments,
		Acknowledged: result.Acknowledged,
		Errors:       result.Errors,
	}
}

func toDocumentResponse(doc *inbox.Document) DocumentResponse {
	return DocumentResponse{
		ID:             doc.ID.String(),
		Kind:           string(doc.Kind),
		AccessKey:      doc.AccessKey,
		IssuedAt:       doc.IssuedAt,
		IssuerTaxID:    doc.IssuerTaxID,
		IssuerName:     doc.IssuerName,
		RecipientTaxID: doc.RecipientTaxID,
		TotalValue:     doc.TotalValue.String(),
		Status:         string(doc.Status),
		MatchedItems:   doc.MatchedItems,
		PendingItems:   doc.PendingItems,
		Origin:         string(doc.Origin),
		Acknowledged:   doc.Acknowledged,
		AcknowledgedAt: doc.AcknowledgedAt,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func toLineItemResponse(item *inbox.LineItem) LineItemResponse {
	resp := LineItemResponse{
		ID:                 item.ID.String(),
		LineNumber:         item.LineNumber,
		SupplierCode:       item.SupplierCode,
		Description:        item.Description,
		Unit:               item.Unit,
		ClassificationCode: item.ClassificationCode,
		Barcode:            item.Barcode,
		Quantity:           item.Quantity.String(),
		UnitPrice:          item.UnitPrice.String(),
		MatchStatus:        string(item.MatchStatus),
		MatchScore:         item.MatchScore,
		MatchMethod:        item.MatchMethod,
	}
	if item.ProductID != nil {
		id := item.ProductID.String()
		resp.ProductID = &id
	}
	for _, s := range item.Suggestions {
		resp.Suggestions = append(resp.Suggestions, SuggestionResponse{
			ProductID: s.ProductID.String(),
			Name:      s.Name,
			Score:     s.Score,
		})
	}
	return resp
}

func toQueueUnitResponse(unit *pipeline.QueueUnit) QueueUnitResponse {
	return QueueUnitResponse{
		ID:            unit.ID.String(),
		Stage:         string(unit.Stage),
		Status:        string(unit.Status),
		Attempts:      unit.Attempts,
		MaxAttempts:   unit.MaxAttempts,
		LastError:     unit.LastError,
		NextAttemptAt: unit.NextAttemptAt,
		ProcessedAt:   unit.ProcessedAt,
		CreatedAt:     unit.CreatedAt,
	}
}

func toDocumentDetailResponse(detail *appinbox.DocumentDetail) DocumentDetailResponse {
	resp := DocumentDetailResponse{
		DocumentResponse: toDocumentResponse(detail.Document),
		LineItems:        make([]LineItemResponse, 0, len(detail.LineItems)),
		Pipeline:         make([]QueueUnitResponse, 0, len(detail.Units)),
	}
	for _, item := range detail.LineItems {
		resp.LineItems = append(resp.LineItems, toLineItemResponse(item))
	}
	for _, unit := range detail.Units {
		resp.Pipeline = append(resp.Pipeline, toQueueUnitResponse(unit))
	}
	return resp
}
