// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/HSouheill/carrental_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles per client IP, with stricter limits on the
// credential endpoints. A client that exceeds its limit is blocked for
// blockDuration.
type RateLimiter struct {
	ips            map[string]*clientLimiter
	blockedIPs     map[string]time.Time
	mu             sync.Mutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	idleTTL        time.Duration
	endpointLimits map[string]endpointLimit
	now            func() time.Time
	stop           chan struct{}
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:           make(map[string]*clientLimiter),
		blockedIPs:    make(map[string]time.Time),
		defaultLimit:  rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:  20,
		blockDuration: 5 * time.Minute,
		idleTTL:       time.Hour,
		endpointLimits: map[string]endpointLimit{
			// Brute force protection on credentials
			"/api/auth/login":           {limit: rate.Every(2 * time.Second), burst: 5},
			"/api/auth/register":        {limit: rate.Every(500 * time.Millisecond), burst: 5},
			"/api/auth/password/forgot": {limit: rate.Every(10 * time.Second), burst: 3},
			"/api/auth/password/reset":  {limit: rate.Every(2 * time.Second), burst: 5},
		},
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go limiter.cleanupBlockedIPs()

	return limiter
}

// SetEndpointLimit overrides the limit for a route path.
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
	r.mu.Unlock()
}

// Stop ends the cleanup goroutine.
func (r *RateLimiter) Stop() {
	close(r.stop)
}

func (r *RateLimiter) cleanupBlockedIPs() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
		r.sweep()
	}
}

// sweep drops expired blocks and limiters not used for idleTTL.
func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			r.resetClient(ip)
		}
	}
	for key, entry := range r.ips {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.ips, key)
		}
	}
}

// resetClient removes every limiter held for ip. Callers hold r.mu.
func (r *RateLimiter) resetClient(ip string) {
	delete(r.ips, ip)
	for path := range r.endpointLimits {
		delete(r.ips, ip+"|"+path)
	}
}

// Len reports how many limiters are held.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ips)
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Path()

			// Long-lived streams are not request traffic
			if path == "/api/notifications/stream" || path == "/api/notifications/ws" {
				return next(c)
			}

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if r.now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				delete(r.blockedIPs, ip)
				r.resetClient(ip)
			}

			limit, burst := r.defaultLimit, r.defaultBurst
			if l, ok := r.endpointLimits[path]; ok {
				limit, burst = l.limit, l.burst
			}
			// Endpoint limiters are keyed separately so a busy client does not
			// exhaust its login budget by browsing.
			key := ip + "|" + path
			if _, ok := r.endpointLimits[path]; !ok {
				key = ip
			}
			now := r.now()
			entry, exists := r.ips[key]
			if !exists {
				entry = &clientLimiter{limiter: rate.NewLimiter(limit, burst)}
				r.ips[key] = entry
			}
			entry.lastSeen = now

			if !entry.limiter.AllowN(now, 1) {
				blockUntil := now.Add(r.blockDuration)
				r.blockedIPs[ip] = blockUntil
				r.mu.Unlock()
				return tooManyRequests(c, blockUntil)
			}
			r.mu.Unlock()

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	c.Response().Header().Set("Retry-After", retryAfter.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusTooManyRequests, models.Response{
		OK:    false,
		Error: "Too many requests",
	})
}
