package secfetch

import (
	"context"
	"net/http"
	"time"
)

// CacheEntry is a cached response payload. Body is fully buffered so every
// reader of the entry gets an independent response body.
type CacheEntry struct {
	Body       []byte      `json:"body"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	StoredAt   time.Time   `json:"stored_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Cache stores fetched responses by fingerprint. Implementations must be
// safe for concurrent use; expired entries must never be returned from Get.
type Cache interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, entry *CacheEntry, ttl time.Duration)
	Delete(key string)
	Clear()
}

// KeyFunc derives a deterministic cache fingerprint from a request.
// Logically identical requests must map to the same key.
type KeyFunc func(*http.Request) string

// CacheCondition decides whether a request's response may be cached.
type CacheCondition func(req *http.Request) bool

// Limiter is the throttle consulted before each network fetch. Wait blocks
// until the next slot is available or the context is done.
type Limiter interface {
	Wait(ctx context.Context) error
}

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerConfig holds circuit breaker thresholds. Zero values select
// the defaults (5 failures, 60s recovery, 2 successes to close).
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// Option configures a Fetcher at construction time.
type Option func(*Fetcher)

// Logger receives structured debug output from the Fetcher. Keys and values
// alternate in keysAndValues, matching the zap sugared style.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DebugConfig gates per-stage debug logging.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogCache     bool
	LogRateLimit bool
	RequestIDGen func() string
}

// DefaultDebugConfig returns a config with all stages enabled once Enabled
// is flipped on.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		LogRequests:  true,
		LogRetries:   true,
		LogCache:     true,
		LogRateLimit: true,
		RequestIDGen: defaultRequestID,
	}
}
