package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"matatu_manager/internal/apperr"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	// in-flight marker lifetime; released when the handler returns
	idempotencyHoldTTL = 30 * time.Second
)

// errKeyUnused is returned by Load when nothing is stored under the key.
var errKeyUnused = errors.New("idempotency key unused")

var errKeyInFlight = apperr.ConflictError{Msg: "A request with this Idempotency-Key is still being processed"}

// idempotencyStore keeps replayable responses. Reserve must be atomic: of
// two callers racing on one key, exactly one gets true.
type idempotencyStore interface {
	Load(ctx context.Context, key string) (*cachedResponse, error)
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, resp cachedResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// cachedResponse with a zero StatusCode marks a request still in flight.
type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (r cachedResponse) inFlight() bool { return r.StatusCode == 0 }

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST, PUT or PATCH that
// carries an Idempotency-Key already seen for the same user. A repeat that
// arrives while the first is still running gets 409. It is a no-op without
// redis. Server errors are not stored so the client can retry.
func Idempotency(client *redis.Client) gin.HandlerFunc {
	if client == nil {
		return idempotencyWith(nil)
	}
	return idempotencyWith(&redisIdempotencyStore{client: client})
}

func idempotencyWith(store idempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if store == nil || key == "" || !mutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := "idempotency:" + UserID(c).String() + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		if replay(c, store, cacheKey) {
			return
		}

		reserved, err := store.Reserve(ctx, cacheKey, idempotencyHoldTTL)
		if err != nil {
			logrus.WithError(err).Warn("Idempotency: redis reserve failed, continuing without replay")
			c.Next()
			return
		}
		if !reserved {
			// lost the race; the winner may already have finished
			if !replay(c, store, cacheKey) {
				AbortWithError(c, errKeyInFlight)
			}
			return
		}

		saved := false
		defer func() {
			if saved {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), cacheKey); err != nil {
				logrus.WithError(err).Warn("Idempotency: could not release key")
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Next()

		if status := w.Status(); status >= 200 && status < 500 {
			resp := cachedResponse{StatusCode: status, Body: w.body.Bytes(), ContentType: w.Header().Get("Content-Type")}
			if err := store.Save(context.WithoutCancel(ctx), cacheKey, resp, idempotencyTTL); err != nil {
				logrus.WithError(err).Warn("Idempotency: could not store response")
				return
			}
			saved = true
		}
	}
}

// replay answers from the store and reports whether it wrote a response,
// either the stored one or a 409 for a request still in flight.
func replay(c *gin.Context, store idempotencyStore, key string) bool {
	cached, err := store.Load(c.Request.Context(), key)
	switch {
	case errors.Is(err, errKeyUnused):
		return false
	case err != nil:
		logrus.WithError(err).Warn("Idempotency: redis lookup failed")
		return false
	case cached.inFlight():
		AbortWithError(c, errKeyInFlight)
		return true
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(cached.StatusCode, cached.ContentType, cached.Body)
	c.Abort()
	return true
}

func mutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// redisIdempotencyStore reserves keys with SETNX.
type redisIdempotencyStore struct {
	client *redis.Client
}

var _ idempotencyStore = (*redisIdempotencyStore)(nil)

func (s *redisIdempotencyStore) Load(ctx context.Context, key string) (*cachedResponse, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errKeyUnused
	}
	if err != nil {
		return nil, err
	}
	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (s *redisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	marker, err := json.Marshal(cachedResponse{})
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, key, marker, ttl).Result()
}

func (s *redisIdempotencyStore) Save(ctx context.Context, key string, resp cachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *redisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
