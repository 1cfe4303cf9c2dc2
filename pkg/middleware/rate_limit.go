package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/classmedia/pkg/configs"
)

const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiters 每个 key 一个令牌桶，长时间未使用的在取用时顺带清理.
type keyedLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func (k *keyedLimiters) allow(key string, now time.Time) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if now.Sub(k.lastSweep) > limiterIdle {
		for name, e := range k.entries {
			if now.Sub(e.lastSeen) > limiterIdle {
				delete(k.entries, name)
			}
		}

		k.lastSweep = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.rps, k.burst)}
		k.entries[key] = e
	}

	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

// RateLimitMiddleware 令牌桶限流，key 支持 global、ip、actor 与 header:Name.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.Key))

	if mode == "global" || mode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
				c.Next()

				return
			}

			if !limiter.Allow() {
				tooMany(c)

				return
			}

			c.Next()
		}
	}

	limiters := &keyedLimiters{
		rps:     rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		entries: make(map[string]*limiterEntry),
	}

	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()

			return
		}

		key := limitKey(c, mode)
		if !limiters.allow(key, time.Now()) {
			tooMany(c)

			return
		}

		c.Next()
	}
}

func limitKey(c *gin.Context, mode string) string {
	var key string

	switch {
	case strings.HasPrefix(mode, "header:"):
		key = c.GetHeader(strings.TrimPrefix(mode, "header:"))
	case mode == "actor":
		key = Actor(c)
	}

	if key == "" {
		key = c.ClientIP()
	}

	if key == "" {
		key = "unknown"
	}

	return key
}

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		gin.H{"error": "rate limit exceeded, request too frequent, please try again later"})
}
