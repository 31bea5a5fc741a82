package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replay"
)

const maxIdempotencyKeyLength = 255

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// storedResponse is what gets persisted per key
type storedResponse struct {
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes mutating requests carrying an Idempotency-Key header safe
// to retry. The first request claims the key and its 2xx JSON response is
// stored; repeats replay it. A repeat that arrives while the first is still
// running gets 409. Failed requests release the key.
// Requests without the header pass through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if cfg.Store == nil || key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		storeKey := c.Request.Method + " " + c.Request.URL.Path + " " + key

		claimed, err := cfg.Store.Claim(ctx, storeKey, ttl)
		if err != nil {
			// store unavailable: serve the request unguarded
			logger.Warn("idempotency claim failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			replay(c, cfg.Store, storeKey, logger)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// the client may be gone; the bookkeeping must still happen
		bg := context.WithoutCancel(ctx)
		status := w.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices || !json.Valid(w.body.Bytes()) {
			if err := cfg.Store.Forget(bg, storeKey); err != nil {
				logger.Warn("idempotency forget failed", zap.String("key", key), zap.Error(err))
			}
			return
		}

		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err == nil {
			err = cfg.Store.Complete(bg, storeKey, payload, ttl)
		}
		if err != nil {
			logger.Warn("idempotency complete failed", zap.String("key", key), zap.Error(err))
			_ = cfg.Store.Forget(bg, storeKey)
		}
	}
}

func replay(c *gin.Context, store shared.IdempotencyStore, storeKey string, logger *zap.Logger) {
	raw, done, err := store.Lookup(c.Request.Context(), storeKey)
	if err != nil {
		logger.Warn("idempotency lookup failed", zap.String("key", storeKey), zap.Error(err))
	}
	if !done {
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestInFlight,
			"A request with this Idempotency-Key is still being processed",
			GetRequestID(c),
		))
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, "Stored response is unreadable", GetRequestID(c)))
		return
	}
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Header(IdempotentReplayHeader, "true")
	c.Data(stored.Status, contentType, stored.Body)
	c.Abort()
}
