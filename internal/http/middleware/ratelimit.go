// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket rate limiter
// (golang.org/x/time/rate) with one bucket per terminal. Payment replays
// detected by IdempotencyValidator are never limited, so a terminal retrying
// after a timeout always gets its original result back.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var rateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pos_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by route.",
	},
	[]string{"path"},
)

func init() {
	prometheus.MustRegister(rateLimited)
}

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByHolderOrIP keys buckets by client IP, split per terminal when the
// request names one in X-Session-Holder. Several terminals behind one store
// NAT therefore get their own buckets.
func KeyByHolderOrIP() keyFunc {
	return func(c *gin.Context) string {
		ip := "ip:" + c.ClientIP()
		if h := strings.TrimSpace(c.GetHeader(holderHeader)); h != "" {
			return ip + "|holder:" + truncate(h, 64)
		}
		return ip
	}
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	RPS   float64 // tokens per second
	Burst int     // bucket size; values < 1 become 1
	Key   keyFunc // defaults to KeyByHolderOrIP

	// Exempt lists path prefixes that are never limited (probes, scrapes).
	Exempt []string

	// IdleTTL is how long an unused bucket is kept. Defaults to 10 minutes.
	IdleTTL time.Duration
}

// sweepEvery is the number of lookups between idle-bucket sweeps.
const sweepEvery = 2048

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	key     keyFunc
	exempt  []string
	idleTTL time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter builds a limiter from opts.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	if opts.Key == nil {
		opts.Key = KeyByHolderOrIP()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		limit:   rate.Limit(opts.RPS),
		burst:   opts.Burst,
		key:     opts.Key,
		exempt:  opts.Exempt,
		idleTTL: opts.IdleTTL,
		buckets: make(map[string]*bucket),
	}
}

// limiterFor returns the bucket for key, creating it on first use. Idle
// buckets are swept before the lookup so a stale entry is never refreshed.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of a completed payment.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the Gin middleware. A rejected request gets 429 with the
// standard error envelope and a Retry-After header in whole seconds until
// the bucket refills.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || hasPrefix(c.Request.URL.Path, rl.exempt) {
			c.Next()
			return
		}

		now := time.Now()
		wait, ok := take(rl.limiterFor(rl.key(c), now), now)
		if ok {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rateLimited.WithLabelValues(path).Inc()

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

// take consumes one token if available. Otherwise it returns how long the
// caller would have had to wait; zero means the bucket never refills.
func take(lim *rate.Limiter, now time.Time) (time.Duration, bool) {
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return 0, false
	}
	d := r.DelayFrom(now)
	if d == 0 {
		return 0, true
	}
	r.CancelAt(now)
	return d, false
}

func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int(math.Ceil(d.Seconds()))
}
