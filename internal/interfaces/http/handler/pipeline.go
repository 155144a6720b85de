package handler

import (
	"context"

	apppipeline "github.com/fiscalhub/backend/internal/application/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QueueProcessor defines the pipeline operation the handler depends on
type QueueProcessor interface {
	ProcessQueue(ctx context.Context, tenantID uuid.UUID) (apppipeline.BatchResult, error)
}

// PipelineHandler handles pipeline HTTP requests
type PipelineHandler struct {
	BaseHandler
	processor QueueProcessor
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(processor QueueProcessor) *PipelineHandler {
	return &PipelineHandler{processor: processor}
}

// BatchResultResponse summarizes one processing batch
type BatchResultResponse struct {
	Processed int      `json:"processed"`
	Errors    int      `json:"errors"`
	Failures  []string `json:"failures,omitempty"`
}

// Process claims and handles a batch of pending queue units
func (h *PipelineHandler) Process(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	result, err := h.processor.ProcessQueue(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BatchResultResponse{
		Processed: result.Processed,
		Errors:    result.Errors,
		Failures:  result.Failures,
	})
}

// RegisterRoutes registers pipeline routes
func (h *PipelineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pipelineGroup := rg.Group("/pipeline")
	{
		pipelineGroup.POST("/process", h.Process)
	}
}
