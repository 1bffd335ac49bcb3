package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lipaykripto/webhook/internal/services/lipay"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits webhook deliveries per client IP
type RateLimiter struct {
	ipLimiters      map[string]*ipLimiter
	ipMutex         sync.Mutex
	ipLimiterRate   rate.Limit
	ipBurst         int
	cleanupInterval time.Duration
	cleanupTicker   *time.Ticker
	done            chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

// NewRateLimiter creates a new rate limiter. Every cleanupInterval, limiters for IPs
// that sent nothing during the last interval are dropped.
func NewRateLimiter(requestsPerSecond float64, burst int, cleanupInterval time.Duration) *RateLimiter {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	limiter := &RateLimiter{
		ipLimiters:      make(map[string]*ipLimiter),
		ipLimiterRate:   rate.Limit(requestsPerSecond),
		ipBurst:         burst,
		cleanupInterval: cleanupInterval,
		cleanupTicker:   time.NewTicker(cleanupInterval),
		done:            make(chan struct{}),
		now:             time.Now,
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.done)
	})
}

// evictIdle drops limiters not used within the last cleanup interval
func (rl *RateLimiter) evictIdle() {
	rl.ipMutex.Lock()
	defer rl.ipMutex.Unlock()

	cutoff := rl.now().Add(-rl.cleanupInterval)
	for ip, l := range rl.ipLimiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.ipLimiters, ip)
		}
	}
}

// getIPLimiter returns the rate limiter for an IP
func (rl *RateLimiter) getIPLimiter(ip string) *rate.Limiter {
	rl.ipMutex.Lock()
	defer rl.ipMutex.Unlock()

	l, exists := rl.ipLimiters[ip]
	if !exists {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.ipLimiterRate, rl.ipBurst)}
		rl.ipLimiters[ip] = l
	}
	l.lastSeen = rl.now()

	return l.limiter
}

// IPRateLimiterMiddleware limits requests based on IP address
func (rl *RateLimiter) IPRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getIPLimiter(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, lipay.Response{
				Success: false,
				Message: "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
