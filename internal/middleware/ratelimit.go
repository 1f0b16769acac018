package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/counseling-portal-backend/pkg/clientip"
	"github.com/AnshRaj112/counseling-portal-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyPrefix is the Redis key prefix for rate limiting
const RateLimitKeyPrefix = "ratelimit:"

// RateLimit counts requests per client IP in fixed windows stored in Redis.
// scope separates counters of different routes. A nil client or a zero max
// disables the limit. Redis failures let the request through.
func RateLimit(rdb *redis.Client, scope string, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil || max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := RateLimitKeyPrefix + scope + ":" + clientip.RealClientIP(r)

			count, err := rdb.Incr(ctx, key).Result()
			if err == nil && count == 1 {
				// first request in this window
				err = rdb.Expire(ctx, key, window).Err()
			}
			if err != nil {
				logger.Warnf("ratelimit.%s: redis unavailable, allowing request: %v", scope, err)
				next.ServeHTTP(w, r)
				return
			}

			ttl, err := rdb.TTL(ctx, key).Result()
			if err != nil || ttl < 0 {
				ttl = window
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if count > int64(max) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(fmt.Sprintf(`{"success":false,"message":"Rate limit exceeded. Please try again later.","retry_after":%d}`, int(ttl.Seconds()))))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(max)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}
