package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second
)

// cachedResponse is what a completed request leaves behind for its replays.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

func idempotencyKeys(r *http.Request, key string) (cacheKey, lockKey string) {
	var employeeID string
	if claims, err := jwt.ClaimsFromContext(r.Context()); err == nil {
		employeeID = claims.EmployeeID
	}
	cacheKey = fmt.Sprintf("idemp:%s:%s:%s", r.URL.Path, employeeID, key)
	return cacheKey, cacheKey + ":lock"
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key seen before, and rejects a duplicate that arrives while the
// first is still running. Server errors are not stored so the client can retry.
// When Redis is unreachable requests pass through unprotected.
func Idempotency(rdb redis.Cmdable, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			cacheKey, lockKey := idempotencyKeys(r, key)

			val, err := rdb.Get(ctx, cacheKey).Result()
			switch {
			case err == nil:
				var cached cachedResponse
				if err := json.Unmarshal([]byte(val), &cached); err == nil {
					w.Header().Set("Content-Type", cached.ContentType)
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write([]byte(cached.Body))
					return
				}
				slog.WarnContext(ctx, "discarding unreadable idempotency entry", "key", cacheKey)
			case !errors.Is(err, redis.Nil):
				slog.WarnContext(ctx, "idempotency store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := rdb.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
			if err != nil {
				slog.WarnContext(ctx, "idempotency lock unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				response.Error(w, http.StatusConflict, "REQUEST_IN_PROGRESS", "A request with this idempotency key is still being processed", nil)
				return
			}

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < http.StatusInternalServerError {
				payload, err := json.Marshal(cachedResponse{
					Status:      rec.status,
					ContentType: rec.Header().Get("Content-Type"),
					Body:        rec.body.String(),
				})
				if err == nil {
					err = rdb.Set(ctx, cacheKey, string(payload), ttl).Err()
				}
				if err != nil {
					slog.WarnContext(ctx, "failed to store idempotent response", "key", cacheKey, "error", err)
				}
			}
			if err := rdb.Del(ctx, lockKey).Err(); err != nil {
				slog.WarnContext(ctx, "failed to release idempotency lock", "key", lockKey, "error", err)
			}
		})
	}
}

// recordingWriter passes writes through while keeping a copy of the body.
type recordingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
