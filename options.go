package secfetch

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// WithRateLimit sets the fetch budget in calls per second (default 10).
// Pass 0 to disable throttling.
func WithRateLimit(callsPerSecond float64) Option {
	return func(f *Fetcher) {
		f.limiter = NewIntervalLimiter(callsPerSecond)
	}
}

// WithLimiter sets a custom rate limiter implementation.
func WithLimiter(limiter Limiter) Option {
	return func(f *Fetcher) {
		f.limiter = limiter
	}
}

// WithHostRateLimit gives host a dedicated budget separate from the default
// limiter. May be repeated for multiple hosts. Unmatched hosts fall back to
// the Fetcher's default limiter, resolved at fetch time so option order
// does not matter.
func WithHostRateLimit(host string, callsPerSecond float64) Option {
	return func(f *Fetcher) {
		if f.registry == nil {
			f.registry = NewLimiterRegistry(nil)
		}
		f.registry.Register(host, NewIntervalLimiter(callsPerSecond))
	}
}

// WithCacheTTL sets the cache time-to-live (default 1h).
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.cacheTTL = ttl
	}
}

// WithCache sets a custom cache implementation. Pass nil to disable caching.
func WithCache(cache Cache) Option {
	return func(f *Fetcher) {
		f.cache = cache
	}
}

// WithMaxCacheEntries bounds the in-memory cache, evicting oldest entries
// once full. Default is unbounded.
func WithMaxCacheEntries(n int) Option {
	return func(f *Fetcher) {
		f.cache = NewBoundedMemoryCache(n)
	}
}

// WithKeyFunc sets a custom request fingerprinting function.
func WithKeyFunc(fn KeyFunc) Option {
	return func(f *Fetcher) {
		f.keyFunc = fn
	}
}

// WithCacheCondition sets a custom cacheability predicate.
func WithCacheCondition(fn CacheCondition) Option {
	return func(f *Fetcher) {
		f.cacheCondition = fn
	}
}

// WithMaxAttempts sets the total attempt budget per fetch (default 3).
// Values below 1 are clamped to 1. Other retry knobs are preserved.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n < 1 {
			n = 1
		}
		policy := f.policy.clone()
		policy.maxAttempts = n
		f.policy = policy
	}
}

// WithBackoffBase sets the base backoff delay; attempt n waits
// base * 2^(n-1) before retrying (default 1s). Other retry knobs are
// preserved.
func WithBackoffBase(d time.Duration) Option {
	return func(f *Fetcher) {
		policy := f.policy.clone()
		policy.backoffBase = d
		f.policy = policy
	}
}

// WithRetryableStatusCodes replaces the set of statuses treated as
// transient (default 429, 500, 502, 503, 504). Other retry knobs are
// preserved.
func WithRetryableStatusCodes(codes ...int) Option {
	return func(f *Fetcher) {
		set := make(map[int]bool, len(codes))
		for _, code := range codes {
			set[code] = true
		}
		policy := f.policy.clone()
		policy.retryableStatus = set
		f.policy = policy
	}
}

// WithRetryPolicy sets a fully custom retry policy.
func WithRetryPolicy(policy *RetryPolicy) Option {
	return func(f *Fetcher) {
		f.policy = policy
	}
}

// WithBackoffJitter adds up to fraction (0..1) of uniform random slack to
// each backoff delay. Default 0 so delays are exact. Survives later retry
// options in the same New call.
func WithBackoffJitter(fraction float64) Option {
	return func(f *Fetcher) {
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		policy := f.policy.clone()
		policy.jitter = fraction
		f.policy = policy
	}
}

// WithFetchTimeout sets an overall deadline covering the whole fetch: the
// limiter wait, every attempt and every backoff sleep. Default none; the
// per-request HTTP client timeout still applies to each attempt.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.fetchTimeout = d
	}
}

// WithTimeout sets the per-attempt HTTP client timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if f.httpClient != nil {
			f.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = client
	}
}

// WithDeduplication coalesces concurrent identical cache-miss fetches into
// a single network call whose result is shared by all waiters.
func WithDeduplication() Option {
	return func(f *Fetcher) {
		f.group = &singleflight.Group{}
	}
}

// WithCircuitBreaker enables the circuit breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(f *Fetcher) {
		f.breaker = NewCircuitBreaker(config)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(f *Fetcher) {
		f.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(f *Fetcher) {
		f.metrics = collector
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(f *Fetcher) {
		if f.debug == nil {
			f.debug = DefaultDebugConfig()
		}
		f.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(f *Fetcher) {
		f.debug = config
	}
}

// WithSimpleLogger enables debug logging with a console logger.
func WithSimpleLogger() Option {
	return func(f *Fetcher) {
		if f.debug == nil {
			f.debug = DefaultDebugConfig()
		}
		f.debug.Enabled = true
		f.logger = NewSimpleLogger()
	}
}

// ValidateConfiguration checks the Fetcher's configuration for mistakes
// that would misbehave silently at fetch time.
func (f *Fetcher) ValidateConfiguration() error {
	if f.httpClient == nil {
		return fmt.Errorf("http client must not be nil")
	}
	if f.policy == nil {
		return fmt.Errorf("retry policy must not be nil")
	}
	if f.policy.maxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", f.policy.maxAttempts)
	}
	if f.policy.backoffBase < 0 {
		return fmt.Errorf("backoff base must not be negative, got %v", f.policy.backoffBase)
	}
	if f.cache != nil && f.cacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive when caching is enabled, got %v", f.cacheTTL)
	}
	if f.keyFunc == nil {
		return fmt.Errorf("key function must not be nil")
	}
	if f.cache != nil && f.cacheCondition == nil {
		return fmt.Errorf("cache condition must not be nil when caching is enabled")
	}
	if f.fetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %v", f.fetchTimeout)
	}
	return nil
}
