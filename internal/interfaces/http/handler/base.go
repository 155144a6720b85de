package handler

import (
	"errors"
	"net/http"

	"github.com/fiscalhub/backend/internal/domain/catalog"
	"github.com/fiscalhub/backend/internal/domain/distribution"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/fiscalhub/backend/internal/infrastructure/resilience"
	"github.com/fiscalhub/backend/internal/interfaces/http/dto"
	"github.com/fiscalhub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getTenantID extracts the tenant ID set by the tenant middleware
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	if id := middleware.GetTenantID(c); id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, errors.New("tenant ID not found in context")
}

// getUserID extracts the acting user from the X-User-ID header, if present
func getUserID(c *gin.Context) uuid.UUID {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	// Structured domain errors carry their own code
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	code := classifyError(err)
	if code == dto.ErrCodeInternal {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			code,
			"An unexpected error occurred",
			requestID,
		))
		return
	}

	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, err.Error(), requestID))
}

// classifyError maps sentinel domain errors to response error codes
func classifyError(err error) string {
	switch {
	case errors.Is(err, inbox.ErrDocumentNotFound),
		errors.Is(err, inbox.ErrLineItemNotFound),
		errors.Is(err, matching.ErrMappingNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		return dto.ErrCodeNotFound

	case errors.Is(err, inbox.ErrDocumentAlreadyExists):
		return dto.ErrCodeAlreadyExists

	case errors.Is(err, inbox.ErrLineItemAlreadyMatched):
		return dto.ErrCodeConflict

	case errors.Is(err, inbox.ErrDocumentInvalidState):
		return dto.ErrCodeInvalidState

	case errors.Is(err, inbox.ErrDocumentInvalidAccessKey),
		errors.Is(err, inbox.ErrDocumentInvalidKind),
		errors.Is(err, inbox.ErrAckInvalidKind),
		errors.Is(err, inbox.ErrAckJustificationRequired),
		errors.Is(err, inbox.ErrLineItemInvalidProduct):
		return dto.ErrCodeInvalidInput

	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, distribution.ErrNotConfigured):
		return dto.ErrCodeUpstreamUnavailable
	}

	return dto.ErrCodeInternal
}
