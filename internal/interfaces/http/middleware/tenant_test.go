package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupTenantRouter() (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var captured uuid.UUID

	r := gin.New()
	r.Use(Tenant())
	r.GET("/inbox/documents", func(c *gin.Context) {
		captured = GetTenantID(c)
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, &captured
}

func TestTenant(t *testing.T) {
	t.Run("extracts tenant from header", func(t *testing.T) {
		r, captured := setupTenantRouter()
		tenantID := uuid.New()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/inbox/documents", nil)
		req.Header.Set(TenantHeaderKey, tenantID.String())
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, *captured)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		r, _ := setupTenantRouter()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/inbox/documents", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects malformed tenant id", func(t *testing.T) {
		r, _ := setupTenantRouter()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/inbox/documents", nil)
		req.Header.Set(TenantHeaderKey, "not-a-uuid")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		r, _ := setupTenantRouter()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetTenantID_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetTenantID(c))
}
