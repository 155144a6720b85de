package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func accessLogEntry(t *testing.T, recorded *observer.ObservedLogs) *observer.LoggedEntry {
	t.Helper()
	for _, entry := range recorded.All() {
		if entry.Message == "request completed" {
			return &entry
		}
	}
	t.Fatal("no access log entry recorded")
	return nil
}

func TestGinMiddleware_LogsRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-042")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/api/v1/inbox/documents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/inbox/documents?status=pending", nil)
	req.Header.Set("User-Agent", "intake-client/1.0")
	router.ServeHTTP(w, req)

	entry := accessLogEntry(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := make(map[string]zapcore.Field)
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	assert.Equal(t, "req-042", fields["request_id"].String)
	assert.Equal(t, "GET", fields["method"].String)
	assert.Equal(t, "/api/v1/inbox/documents", fields["path"].String)
	assert.Equal(t, int64(http.StatusOK), fields["status"].Integer)
	assert.Contains(t, fields["query"].String, "status=pending")
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
	assert.Contains(t, fields, "user_agent")
}

func TestGinMiddleware_IncludesTenantSetDownstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)
	tenantID := uuid.New()

	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", tenantID)
		c.Next()
	})
	router.GET("/api/v1/inbox/documents", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/inbox/documents", nil)
	router.ServeHTTP(w, req)

	entry := accessLogEntry(t, recorded)
	var tenant string
	for _, f := range entry.Context {
		if f.Key == "tenant_id" {
			tenant = f.String
		}
	}
	assert.Equal(t, tenantID.String(), tenant)
}

func TestGinMiddleware_LevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		status   int
		expected zapcore.Level
	}{
		{"success is info", http.StatusOK, zapcore.InfoLevel},
		{"client error is warn", http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{"server error is error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)

			router := gin.New()
			router.Use(GinMiddleware(zap.New(core)))
			router.POST("/api/v1/inbox/collect", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/v1/inbox/collect", nil)
			router.ServeHTTP(w, req)

			entry := accessLogEntry(t, recorded)
			assert.Equal(t, tt.expected, entry.Level)
		})
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/api/v1/inbox/documents", func(c *gin.Context) {
		panic("payload decoder exploded")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/inbox/documents", nil)

	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Equal(t, "panic recovered", logs[0].Message)
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, _ := observer.New(zapcore.InfoLevel)

	var fromHandler *zap.Logger
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/api/v1/inbox/documents", func(c *gin.Context) {
		fromHandler = GetGinLogger(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/inbox/documents", nil)
	router.ServeHTTP(w, req)

	assert.NotNil(t, fromHandler)
}

func TestGetGinLogger_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	l := GetGinLogger(c)
	require.NotNil(t, l)
	assert.NotPanics(t, func() {
		l.Info("no-op")
	})
}
