package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusUnprocessableEntity, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		r := gin.New()
		r.Use(GinMiddleware(zap.New(core)))
		r.GET("/invoices", func(c *gin.Context) { c.Status(tt.status) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices?status=open", nil))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, tt.level, entry.Level)
		assert.Equal(t, "status=open", entry.ContextMap()["query"])
	}
}

func TestGinMiddleware_PropagatesRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("request_id", "abc"); c.Next() })
	r.Use(GinMiddleware(zap.New(core)))
	r.POST("/offers", func(c *gin.Context) {
		L(c.Request.Context()).Info("offer created")
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers", nil))

	require.Equal(t, 2, logs.Len())
	handlerEntry := logs.All()[0]
	assert.Equal(t, "offer created", handlerEntry.Message)
	assert.Equal(t, "abc", handlerEntry.ContextMap()["request_id"])
	assert.Equal(t, "/offers", handlerEntry.ContextMap()["path"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}
