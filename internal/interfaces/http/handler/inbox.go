package handler

import (
	"context"

	appinbox "github.com/fiscalhub/backend/internal/application/inbox"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Collector defines the inbox operations the handler depends on
type Collector interface {
	Collect(ctx context.Context, tenantID uuid.UUID, issuerTaxID string) (appinbox.CollectResult, error)
	ManualImport(ctx context.Context, tenantID uuid.UUID, payload []byte, kind inbox.DocumentKind) (*inbox.Document, error)
	Acknowledge(ctx context.Context, tenantID, userID uuid.UUID, issuerTaxID string, documentID uuid.UUID, kind inbox.AcknowledgmentKind, justification string) error
}

// DocumentQueries defines the read-only inbox views the handler depends on
type DocumentQueries interface {
	List(ctx context.Context, tenantID uuid.UUID, filter inbox.DocumentFilter) ([]inbox.Document, int64, error)
	Get(ctx context.Context, tenantID, documentID uuid.UUID) (*appinbox.DocumentDetail, error)
}

// InboxHandler handles inbox HTTP requests
type InboxHandler struct {
	BaseHandler
	collector Collector
	queries   DocumentQueries
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(collector Collector, queries DocumentQueries) *InboxHandler {
	return &InboxHandler{
		collector: collector,
		queries:   queries,
	}
}

// Collect triggers a collection run against the distribution web service.
// A partially failed run still returns 200 with the per-document errors.
func (h *InboxHandler) Collect(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.collector.Collect(c.Request.Context(), tenantID, req.IssuerTaxID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCollectResponse(result))
}

// Import ingests a manually uploaded XML payload
func (h *InboxHandler) Import(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	kind := inbox.DocumentKind(req.Kind)
	if req.Kind == "" {
		kind = inbox.DocumentKindInvoice
	}

	doc, err := h.collector.ManualImport(c.Request.Context(), tenantID, []byte(req.Payload), kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toDocumentResponse(doc))
}

// Acknowledge sends a manifestation event for a document
func (h *InboxHandler) Acknowledge(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	err = h.collector.Acknowledge(
		c.Request.Context(),
		tenantID,
		getUserID(c),
		req.IssuerTaxID,
		documentID,
		inbox.AcknowledgmentKind(req.Kind),
		req.Justification,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"acknowledged": true})
}

// ListDocuments returns a paginated list of inbox documents
func (h *InboxHandler) ListDocuments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	filter := inbox.DocumentFilter{
		IssuerTaxID: req.IssuerTaxID,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	if req.Status != "" {
		status := inbox.DocumentStatus(req.Status)
		filter.Status = &status
	}

	docs, total, err := h.queries.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, toDocumentResponse(&docs[i]))
	}

	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// GetDocument returns one document with line items and pipeline history
func (h *InboxHandler) GetDocument(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}

	detail, err := h.queries.Get(c.Request.Context(), tenantID, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDocumentDetailResponse(detail))
}

// RegisterRoutes registers inbox routes
func (h *InboxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inboxGroup := rg.Group("/inbox")
	{
		inboxGroup.POST("/collect", h.Collect)
		inboxGroup.POST("/import", h.Import)
		inboxGroup.POST("/acknowledge", h.Acknowledge)
		inboxGroup.GET("/documents", h.ListDocuments)
		inboxGroup.GET("/documents/:id", h.GetDocument)
	}
}
