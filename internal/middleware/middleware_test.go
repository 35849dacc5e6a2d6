package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matatu_manager/internal/apperr"
	"matatu_manager/internal/auth"
	"matatu_manager/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newManager() *auth.Manager {
	return auth.NewManager("middleware-secret", time.Hour, 24*time.Hour, auth.NewMemoryDenylist())
}

func protected(m *auth.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	h := RequireAuth(m)
	if len(roles) > 0 {
		h = RequireAuthWithRole(m, roles...)
	}
	r.GET("/private", h, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "role": Role(c), "jti": Claims(c).ID})
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth_MissingToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	protected(newManager()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, 401, body.Code)
	assert.Equal(t, "/private", body.Details.Path)
	assert.Equal(t, "req-1", body.Details.RequestID)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "unauthorized", body.Errors[0].Type)
}

func TestRequireAuth_HeaderAndQueryToken(t *testing.T) {
	m := newManager()
	id := uuid.New()
	tokens, err := m.Issue(id, models.RoleStaff)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	protected(m).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	protected(m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private?token="+tokens.AccessToken, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_RejectsRefreshToken(t *testing.T) {
	m := newManager()
	tokens, err := m.Issue(uuid.New(), models.RoleAdmin)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
	protected(m).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWithRole(t *testing.T) {
	m := newManager()
	staff, err := m.Issue(uuid.New(), models.RoleStaff)
	require.NoError(t, err)
	manager, err := m.Issue(uuid.New(), models.RoleManager)
	require.NoError(t, err)
	r := protected(m, models.RoleAdmin, models.RoleManager)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+staff.AccessToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w).Errors[0].Type)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+manager.AccessToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAbortWithError_HidesUntypedErrors(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { AbortWithError(c, assert.AnError) })
	r.GET("/missing", func(c *gin.Context) { AbortWithError(c, apperr.NotFound("vehicle")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Equal(t, "internal_error", body.Errors[0].Type)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	body = decodeError(t, w)
	assert.Equal(t, "Vehicle not found", body.Message)
	assert.Equal(t, "vehicle_not_found", body.Errors[0].Type)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://dash.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIdempotency_WithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	calls := 0
	r.POST("/trips", Idempotency(nil), func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/trips", nil)
		req.Header.Set("Idempotency-Key", "abc")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

// memIdempotency is an in-process idempotencyStore.
type memIdempotency struct {
	mu   sync.Mutex
	rows map[string]cachedResponse
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{rows: map[string]cachedResponse{}}
}

func (m *memIdempotency) Load(_ context.Context, key string) (*cachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[key]
	if !ok {
		return nil, errKeyUnused
	}
	return &r, nil
}

func (m *memIdempotency) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	m.rows[key] = cachedResponse{}
	return true, nil
}

func (m *memIdempotency) Save(_ context.Context, key string, resp cachedResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = resp
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, key)
	return nil
}

func postWithKey(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/trips", nil)
	req.Header.Set(idempotencyHeader, key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ConcurrentRepeatIsRejectedThenReplayed(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	r := gin.New()
	r.Use(RequestID())
	r.POST("/trips", idempotencyWith(newMemIdempotency()), func(c *gin.Context) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		c.JSON(http.StatusCreated, gin.H{"id": "trip-1"})
	})

	first := make(chan *httptest.ResponseRecorder)
	go func() { first <- postWithKey(r, "retry-1") }()
	<-entered

	w := postWithKey(r, "retry-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w).Errors[0].Type)

	close(release)
	w = <-first
	require.Equal(t, http.StatusCreated, w.Code)

	w = postWithKey(r, "retry-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"id":"trip-1"}`, w.Body.String())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	calls := 0
	r := gin.New()
	r.POST("/trips", idempotencyWith(newMemIdempotency()), func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusInternalServerError, postWithKey(r, "k").Code)
	assert.Equal(t, http.StatusCreated, postWithKey(r, "k").Code)
	assert.Equal(t, 2, calls)
}
