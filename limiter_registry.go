package secfetch

import (
	"net/http"
	"sync"
)

// LimiterRegistry maps requests to limiters by host, with a fallback for
// hosts without a dedicated budget. SEC serves www.sec.gov and data.sec.gov
// under one fair-access policy while other upstreams have their own, so a
// Fetcher talking to several hosts can give each its own spacing.
type LimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]Limiter
	fallback Limiter
}

// NewLimiterRegistry creates a registry with the given fallback limiter.
// A nil fallback makes LimiterFor return nil for unmatched hosts, letting
// the caller supply its own default.
func NewLimiterRegistry(fallback Limiter) *LimiterRegistry {
	return &LimiterRegistry{
		limiters: make(map[string]Limiter),
		fallback: fallback,
	}
}

// Register adds a dedicated limiter for host.
func (r *LimiterRegistry) Register(host string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[host] = limiter
}

// LimiterFor returns the limiter governing req and the registry key it was
// resolved under ("default" for the fallback).
func (r *LimiterRegistry) LimiterFor(req *http.Request) (Limiter, string) {
	if req.URL == nil {
		return r.fallback, "default"
	}

	host := req.URL.Host

	r.mu.RLock()
	limiter, exists := r.limiters[host]
	r.mu.RUnlock()

	if exists {
		return limiter, host
	}
	return r.fallback, "default"
}
