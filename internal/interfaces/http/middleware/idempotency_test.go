package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/cache"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotencyRouter(t *testing.T, status int) (*gin.Engine, *cache.InMemoryIdempotencyStore, *atomic.Int32) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	var calls atomic.Int32
	router := gin.New()
	router.Use(RequestID(), Idempotency(IdempotencyConfig{Store: store, TTL: time.Hour}))
	router.POST("/offers/:id/convert", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(status, gin.H{"call": n})
	})
	router.GET("/offers/:id", func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusOK, gin.H{})
	})
	return router, store, &calls
}

func send(router *gin.Engine, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	router, _, calls := newIdempotencyRouter(t, http.StatusCreated)

	first := send(router, http.MethodPost, "/offers/1/convert", "k-1")
	second := send(router, http.MethodPost, "/offers/1/convert", "k-1")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, `{"call":1}`, second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.Empty(t, first.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_KeyIsScopedToPath(t *testing.T) {
	router, _, calls := newIdempotencyRouter(t, http.StatusCreated)

	send(router, http.MethodPost, "/offers/1/convert", "k-1")
	w := send(router, http.MethodPost, "/offers/2/convert", "k-1")

	assert.JSONEq(t, `{"call":2}`, w.Body.String())
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_WithoutKeyOrOnGet(t *testing.T) {
	router, _, calls := newIdempotencyRouter(t, http.StatusCreated)

	send(router, http.MethodPost, "/offers/1/convert", "")
	send(router, http.MethodPost, "/offers/1/convert", "")
	send(router, http.MethodGet, "/offers/1", "k-get")
	send(router, http.MethodGet, "/offers/1", "k-get")

	assert.Equal(t, int32(4), calls.Load())
}

func TestIdempotency_FailureReleasesKey(t *testing.T) {
	router, _, calls := newIdempotencyRouter(t, http.StatusUnprocessableEntity)

	first := send(router, http.MethodPost, "/offers/1/convert", "k-fail")
	second := send(router, http.MethodPost, "/offers/1/convert", "k-fail")

	assert.Equal(t, http.StatusUnprocessableEntity, first.Code)
	assert.JSONEq(t, `{"call":2}`, second.Body.String())
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_InFlight(t *testing.T) {
	router, store, calls := newIdempotencyRouter(t, http.StatusCreated)

	ok, err := store.Claim(context.Background(), "POST /offers/1/convert k-busy", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	w := send(router, http.MethodPost, "/offers/1/convert", "k-busy")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeRequestInFlight)
	assert.Equal(t, int32(0), calls.Load())
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	router, _, calls := newIdempotencyRouter(t, http.StatusCreated)

	w := send(router, http.MethodPost, "/offers/1/convert", strings.Repeat("k", 300))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int32(0), calls.Load())
}

type failingStore struct{}

func (failingStore) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) Complete(context.Context, string, []byte, time.Duration) error { return nil }
func (failingStore) Lookup(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (failingStore) Forget(context.Context, string) error                         { return nil }

func TestIdempotency_StoreErrorPassesThrough(t *testing.T) {
	var calls int
	router := gin.New()
	router.Use(Idempotency(IdempotencyConfig{Store: failingStore{}}))
	router.POST("/x", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{})
	})

	send(router, http.MethodPost, "/x", "k")
	send(router, http.MethodPost, "/x", "k")

	assert.Equal(t, 2, calls)
}
