// internal/middleware/idempotency.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// How long the "in-progress" marker may live before a retry is allowed to
// proceed; covers a crashed handler holding the lock.
const provisionalLockTTL = 60 * time.Second

type idempotencyEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type responseRecorder struct {
	gin.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.code = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Idempotency replays the stored response when a lifecycle command is retried
// with the same Idempotency-Key, so a client resending after a network
// timeout cannot apply a transition twice. Passthrough when Redis is not
// configured or the header is absent.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		redisKey := "idemp:" + c.Request.Method + ":" + c.FullPath() + ":" + key
		ctx := context.Background()

		// Claim the key; if someone else holds it, replay or report.
		provisional, _ := json.Marshal(idempotencyEntry{InProgress: true, CreatedAt: time.Now().UTC()})
		claimed, err := rdb.SetNX(ctx, redisKey, provisional, provisionalLockTTL).Result()
		if err != nil {
			// Redis down must not block financial operations.
			logrus.WithError(err).Warn("Idempotency store unavailable, proceeding without replay protection")
			c.Next()
			return
		}

		if !claimed {
			raw, err := rdb.Get(ctx, redisKey).Bytes()
			if err != nil {
				c.Next()
				return
			}
			var entry idempotencyEntry
			if err := json.Unmarshal(raw, &entry); err == nil {
				if entry.InProgress {
					c.JSON(http.StatusConflict, gin.H{
						"error": "A request with this Idempotency-Key is still being processed",
					})
					c.Abort()
					return
				}
				c.Header("X-Idempotent-Replay", "true")
				c.Data(entry.Code, "application/json", entry.Body)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
		c.Writer = recorder

		c.Next()

		entry := idempotencyEntry{
			Code:      recorder.code,
			Body:      recorder.buf.Bytes(),
			CreatedAt: time.Now().UTC(),
		}
		if raw, err := json.Marshal(entry); err == nil {
			if err := rdb.Set(ctx, redisKey, raw, ttl).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to store idempotent response")
			}
		}
	}
}
