package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	platformredis "civictrust/internal/platform/redis"
)

// SubmitRateLimit caps report submissions per user per day using a Redis
// counter with a rolling TTL. A nil client or zero limit disables the limiter
// so dev setups without Redis keep working.
func SubmitRateLimit(client *platformredis.Client, limit int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := "submit-limit:" + userID

			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				// Fail open: a Redis outage must not block report intake.
				logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				if err := client.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
					logger.WarnContext(ctx, "failed to set rate limit TTL",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
				}
			}

			if count > int64(limit) {
				retryAfter, _ := client.TTL(ctx, key).Result()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
