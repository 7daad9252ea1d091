package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	authLimit  = 5
	authWindow = time.Minute
)

// RateLimitResult is the outcome of one rate-limit check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// Limiter decides whether a client may make another auth attempt.
type Limiter interface {
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// RedisLimiter counts auth attempts per client key in a fixed window,
// atomically via a Lua script.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, limit: authLimit, window: authWindow}
}

var limitScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		redis.call('EXPIRE', key, window)
		return {1, limit - current - 1, ttl}
	end
	return {0, 0, ttl}
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	res, err := limitScript.Run(ctx, l.client,
		[]string{"ratelimit:" + key + ":auth"},
		l.limit, int(l.window.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) < 3 {
		return nil, errors.New("unexpected rate limit reply")
	}
	return &RateLimitResult{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetIn:   time.Duration(res[2]) * time.Second,
		Limit:     l.limit,
	}, nil
}

// AuthRateLimit throttles auth attempts per client IP. A nil limiter
// disables throttling, which is the default when Redis isn't configured.
func AuthRateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				// Redis trouble must not lock everyone out.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))

			if !result.Allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"message":"Too many attempts, try again later."}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP middleware may have already stripped the port.
		return r.RemoteAddr
	}
	return host
}
