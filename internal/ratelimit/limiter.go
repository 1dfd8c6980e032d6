// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
//
// Implementations control how often navigations may start, typically on a
// per-host basis so the source site is not overwhelmed.
type RateLimiter interface {
	// Wait blocks until a navigation to the given URL can proceed.
	// If the context is cancelled before the rate limit allows, an error is returned.
	Wait(ctx context.Context, urlStr string) error

	// Allow checks if a navigation to the given URL can proceed immediately
	// without blocking. Returns true if allowed, false otherwise.
	Allow(urlStr string) bool
}

// DomainLimiter provides per-domain politeness: a minimum delay between
// consecutive navigations to the same host, plus optional random jitter.
// It uses the token bucket algorithm with a burst of one.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit
	burst    int
	jitter   time.Duration
}

// NewDomainLimiter creates a limiter allowing one navigation per minDelay per
// host. A zero minDelay disables limiting.
func NewDomainLimiter(minDelay, jitter time.Duration) *DomainLimiter {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	if jitter < 0 {
		jitter = 0
	}

	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  limit,
		burst:    1,
		jitter:   jitter,
	}
}

// Wait blocks until the navigation to the given URL can proceed
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	domain := extractDomain(urlStr)
	if domain == "" {
		// Invalid URL, let it proceed (navigation will fail on its own)
		return nil
	}

	if err := dl.getLimiter(domain).Wait(ctx); err != nil {
		return err
	}

	if dl.jitter <= 0 {
		return nil
	}
	timer := time.NewTimer(rand.N(dl.jitter))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Allow checks if a navigation can proceed immediately without blocking
func (dl *DomainLimiter) Allow(urlStr string) bool {
	domain := extractDomain(urlStr)
	if domain == "" {
		return true
	}
	return dl.getLimiter(domain).Allow()
}

// getLimiter returns or creates a rate limiter for the given domain
func (dl *DomainLimiter) getLimiter(domain string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[domain]
	dl.mu.RUnlock()

	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[domain] = limiter

	return limiter
}

// extractDomain extracts the domain from a URL string
func extractDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
