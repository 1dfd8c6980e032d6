// Package proxy rotates the browser between configured proxies.
package proxy

import (
	"sync"
	"time"
)

// Pool manages a list of proxies with rotation and a failure cooldown
type Pool struct {
	proxies  []string
	index    int
	mu       sync.Mutex
	failed   map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewPool creates a pool; empty entries and duplicates are dropped.
// A proxy marked failed is skipped until cooldown has passed.
func NewPool(proxies []string, cooldown time.Duration) *Pool {
	seen := make(map[string]bool, len(proxies))
	var list []string
	for _, p := range proxies {
		if p != "" && !seen[p] {
			seen[p] = true
			list = append(list, p)
		}
	}
	return &Pool{
		proxies:  list,
		failed:   make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy, or "" when the pool is empty.
// When every proxy is cooling down, the one that failed longest ago is returned.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	oldest := ""
	for range p.proxies {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failTime, ok := p.failed[proxy]
		if !ok {
			return proxy
		}
		if p.now().Sub(failTime) >= p.cooldown {
			delete(p.failed, proxy)
			return proxy
		}
		if oldest == "" || failTime.Before(p.failed[oldest]) {
			oldest = proxy
		}
	}
	return oldest
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *Pool) MarkFailed(proxy string) {
	if proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = p.now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}
