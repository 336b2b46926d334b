package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// Keys of the config section holding the server limits
const (
	KeyRateLimitPerMinute = "rate_limit_per_minute"
	KeyMaxConcurrent      = "max_concurrent_webhooks"
)

// Limits bounds the API. Zero disables a limit.
type Limits struct {
	RequestsPerMinute int
	MaxConcurrent     int
}

// LimitsFromConfig reads the limits from the config section of an effective
// configuration. Missing or non-positive values disable the limit.
func LimitsFromConfig(cfg *configdomain.EffectiveConfig) Limits {
	read := func(key string) int {
		v, ok := cfg.Get("config", key)
		if !ok {
			return 0
		}
		if n, ok := v.AsInt(); ok && n > 0 {
			return int(n)
		}
		return 0
	}
	return Limits{
		RequestsPerMinute: read(KeyRateLimitPerMinute),
		MaxConcurrent:     read(KeyMaxConcurrent),
	}
}

const (
	limiterEntryTTL   = 15 * time.Minute
	limiterSweepEvery = 5 * time.Minute
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client IP. A bucket holds a full
// minute of requests and refills evenly.
type clientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*clientEntry
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		entries: make(map[string]*clientEntry),
		now:     time.Now,
	}
}

func (l *clientLimiter) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastSweep.IsZero() {
		l.lastSweep = now
	}
	if now.Sub(l.lastSweep) >= limiterSweepEvery {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > limiterEntryTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[ip]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// rateLimit rejects clients that exceed the per-minute budget with 429.
func (s *Server) rateLimit(perMinute int) gin.HandlerFunc {
	limiter := newClientLimiter(perMinute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.allow(ip) {
			s.logger.Log(ports.LogLevelWarn, "Rate limit exceeded", map[string]interface{}{
				"client_ip": ip,
				"limit":     perMinute,
			})
			c.Header("Retry-After", strconv.Itoa(int(time.Minute/time.Second)/perMinute+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// concurrencyLimit queues requests beyond limit until a slot frees up or the
// client goes away.
func (s *Server) concurrencyLimit(limit int) gin.HandlerFunc {
	sem := semaphore.NewWeighted(int64(limit))
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			s.logger.Log(ports.LogLevelWarn, "Concurrent request limit reached, queuing request", map[string]interface{}{
				"limit": limit,
				"path":  c.Request.URL.Path,
			})
			if err := sem.Acquire(c.Request.Context(), 1); err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorBody{Error: "request cancelled while queued"})
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
