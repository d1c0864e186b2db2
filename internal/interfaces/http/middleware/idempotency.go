package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "user-directory.backend/internal/domain/errors"
	"user-directory.backend/internal/interfaces/http/response"
	"user-directory.backend/pkg/logger"
	"user-directory.backend/pkg/redis"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
	maxIdempotencyKeyLen = 255
)

// IdempotencyStore reserves keys and keeps the responses they produced
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*redis.StoredResponse, error)
	Complete(ctx context.Context, key string, resp redis.StoredResponse) error
	Release(ctx context.Context, key string) error
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response of a request carrying an
// Idempotency-Key already seen for the same principal and route. A nil store
// disables it.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if store == nil || key == "" {
			c.Next()
			return
		}

		if len(key) > maxIdempotencyKeyLen {
			response.Error(c, domainerrors.BadRequest("idempotency_key",
				fmt.Sprintf("idempotency key is more than %d characters", maxIdempotencyKeyLen)))
			c.Abort()
			return
		}

		principal, _ := GetPrincipal(c)
		storageKey := fmt.Sprintf("%s:%s %s:%s", principal, c.Request.Method, c.FullPath(), key)
		ctx := c.Request.Context()

		stored, err := store.Begin(ctx, storageKey)
		switch {
		case errors.Is(err, redis.ErrInProgress):
			response.ErrorWithStatus(c, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "request already in progress")
			c.Abort()
			return
		case err != nil:
			// fail open, the unique indexes still stop duplicates
			logger.Warn(ctx, "Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		case stored != nil:
			c.Header(IdempotencyHitHeader, "true")
			c.Data(stored.Status, stored.ContentType, []byte(stored.Body))
			c.Abort()
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			err = store.Complete(ctx, storageKey, redis.StoredResponse{
				Status:      status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        w.body.String(),
			})
		} else {
			// free the key so a corrected retry can run
			err = store.Release(ctx, storageKey)
		}
		if err != nil {
			logger.Warn(ctx, "Failed to record idempotent response", zap.Error(err))
		}
	}
}
