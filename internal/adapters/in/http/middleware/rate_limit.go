// internal/adapters/in/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])

	local info = redis.call("HMGET", key, "tokens", "last_refill")
	local tokens = tonumber(info[1])
	local last_refill = tonumber(info[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local delta = math.max(0, now - last_refill)
	local filled = math.min(capacity, tokens + (delta / 1000 * rate))

	local allowed = 0
	if filled >= requested then
		filled = filled - requested
		allowed = 1
	end
	redis.call("HMSET", key, "tokens", filled, "last_refill", now)
	redis.call("EXPIRE", key, math.ceil(capacity / rate) * 2)

	return allowed
`)

// Limiter is a per-client-IP token bucket kept in Redis. Redis errors let the
// request through.
type Limiter struct {
	Client redis.UniversalClient
	Burst  int
	RPS    float64
	Log    *logrus.Logger
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	keys := []string{fmt.Sprintf("rate_limit:%s", key)}
	args := []interface{}{l.Burst, l.RPS, time.Now().UnixMilli(), 1}

	res, err := tokenBucketScript.Run(ctx, l.Client, keys, args...).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	if l == nil || l.Client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 200*time.Millisecond)
		defer cancel()

		ok, err := l.Allow(ctx, "ip:"+clientIP(r))
		if err != nil {
			l.Log.WithError(err).Warn("[ratelimit] redis error; allowing request")
		} else if !ok {
			deny(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	return ip
}
