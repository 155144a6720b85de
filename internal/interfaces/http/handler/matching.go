package handler

import (
	"context"
	"time"

	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Matcher defines the matching operations the handler depends on
type Matcher interface {
	LinkLineItem(ctx context.Context, tenantID, lineItemID, productID uuid.UUID) error
	ListSupplierMappings(ctx context.Context, tenantID uuid.UUID, supplierTaxID string) ([]matching.SupplierMapping, error)
}

// MatchingHandler handles product matching HTTP requests
type MatchingHandler struct {
	BaseHandler
	matcher Matcher
}

// NewMatchingHandler creates a new matching handler
func NewMatchingHandler(matcher Matcher) *MatchingHandler {
	return &MatchingHandler{matcher: matcher}
}

// LinkRequest is the body of a manual line-item link
type LinkRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// SupplierMappingResponse represents a learned supplier mapping
type SupplierMappingResponse struct {
	ID                  string    `json:"id"`
	SupplierTaxID       string    `json:"supplier_tax_id"`
	SupplierCode        string    `json:"supplier_code"`
	SupplierDescription string    `json:"supplier_description,omitempty"`
	Barcode             string    `json:"barcode,omitempty"`
	ClassificationCode  string    `json:"classification_code,omitempty"`
	ProductID           string    `json:"product_id"`
	Origin              string    `json:"origin"`
	Confidence          int       `json:"confidence"`
	TimesUsed           int       `json:"times_used"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func toSupplierMappingResponse(m *matching.SupplierMapping) SupplierMappingResponse {
	return SupplierMappingResponse{
		ID:                  m.ID.String(),
		SupplierTaxID:       m.SupplierTaxID,
		SupplierCode:        m.SupplierCode,
		SupplierDescription: m.SupplierDescription,
		Barcode:             m.Barcode,
		ClassificationCode:  m.ClassificationCode,
		ProductID:           m.ProductID.String(),
		Origin:              string(m.Origin),
		Confidence:          m.Confidence,
		TimesUsed:           m.TimesUsed,
		Active:              m.Active,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// LinkLineItem manually links a line item to a product and learns the mapping
func (h *MatchingHandler) LinkLineItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	lineItemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid line item ID")
		return
	}

	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := h.matcher.LinkLineItem(c.Request.Context(), tenantID, lineItemID, productID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"linked": true})
}

// ListMappings returns the learned supplier mappings for a tenant
func (h *MatchingHandler) ListMappings(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	mappings, err := h.matcher.ListSupplierMappings(c.Request.Context(), tenantID, c.Query("supplier_tax_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]SupplierMappingResponse, 0, len(mappings))
	for i := range mappings {
		responses = append(responses, toSupplierMappingResponse(&mappings[i]))
	}

	h.Success(c, responses)
}

// RegisterRoutes registers matching routes
func (h *MatchingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/line-items/:id/link", h.LinkLineItem)
	rg.GET("/mappings", h.ListMappings)
}
