package secfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher answers "get me the data at this URL" by composing a TTL cache,
// a blocking rate limiter and a retrying HTTP transport. A cache hit is
// served with no network access and no rate-limiter interaction; a miss
// acquires a limiter slot, performs the request with bounded retries, and
// caches the result on success. Failures are never cached. It is safe for
// concurrent use.
type Fetcher struct {
	httpClient      *http.Client
	policy          *RetryPolicy
	limiter         Limiter
	registry        *LimiterRegistry
	breaker         *CircuitBreaker
	cache           Cache
	cacheTTL        time.Duration
	keyFunc         KeyFunc
	cacheCondition  CacheCondition
	group           *singleflight.Group
	fetchTimeout    time.Duration
	metrics         *MetricsCollector
	logger          Logger
	debug           *DebugConfig
	validationError error
}

// New constructs a Fetcher using the provided functional options. Defaults:
// 10 calls/s, 1h cache TTL, 3 attempts with 1s base backoff, retryable
// statuses {429, 500, 502, 503, 504}. A best effort validation is
// performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		policy:         NewRetryPolicy(3, time.Second, nil),
		limiter:        NewIntervalLimiter(10),
		cache:          NewMemoryCache(),
		cacheTTL:       time.Hour,
		keyFunc:        DefaultKeyFunc,
		cacheCondition: DefaultCacheCondition,
		debug:          DefaultDebugConfig(),
	}

	for _, option := range options {
		option(f)
	}

	if err := f.ValidateConfiguration(); err != nil {
		f.validationError = err
	}

	return f
}

// Get performs an HTTP GET with context, applying cache, rate limit and
// retry policy.
func (f *Fetcher) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return f.Do(req)
}

// GetBytes performs a GET and returns the response payload directly. A
// status >= 400 surfaces as a *FetchError, so a nil error always carries a
// usable payload.
func (f *Fetcher) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// Do executes a prepared *http.Request applying all reliability layers.
// The response body is fully buffered and independently readable.
func (f *Fetcher) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	endpoint := endpointFromRequest(req)

	if f.fetchTimeout > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), f.fetchTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	var requestID string
	if f.debug != nil && f.debug.Enabled && f.debug.RequestIDGen != nil {
		requestID = f.debug.RequestIDGen()
	}

	if f.debug != nil && f.debug.Enabled && f.debug.LogRequests && f.logger != nil {
		f.logger.Debug("Starting fetch", "requestID", requestID, "method", req.Method, "url", req.URL.String(), "endpoint", endpoint)
	}

	f.metrics.RecordRequestStart(req.Method, endpoint)
	defer f.metrics.RecordRequestEnd(req.Method, endpoint)

	cacheEnabled := f.cache != nil && f.cacheCondition(req)
	key := f.keyFunc(req)

	if cacheEnabled {
		if entry, found := f.cache.Get(key); found && entry != nil {
			if f.debug != nil && f.debug.Enabled && f.debug.LogCache && f.logger != nil {
				f.logger.Debug("Cache hit", "requestID", requestID, "cacheKey", key)
			}
			f.metrics.RecordCacheHit(req.Method, endpoint)
			f.metrics.RecordRequest(req.Method, endpoint, entry.StatusCode, time.Since(start))
			return responseFromEntry(entry), nil
		}

		f.metrics.RecordCacheMiss(req.Method, endpoint)
		if f.debug != nil && f.debug.Enabled && f.debug.LogCache && f.logger != nil {
			f.logger.Debug("Cache miss", "requestID", requestID, "cacheKey", key)
		}
	}

	var entry *CacheEntry
	var err error

	if f.group != nil && (req.Method == http.MethodGet || req.Method == http.MethodHead) {
		var v interface{}
		var shared bool
		v, err, shared = f.group.Do(key, func() (interface{}, error) {
			// A waiter released after the owner completes may find the
			// entry already cached.
			if cacheEnabled {
				if cached, found := f.cache.Get(key); found && cached != nil {
					return cached, nil
				}
			}
			return f.execute(req, key, cacheEnabled, requestID, start)
		})
		if shared {
			f.metrics.RecordDeduplicationHit(req.Method, endpoint)
			if f.debug != nil && f.debug.Enabled && f.logger != nil {
				f.logger.Debug("Coalesced into in-flight fetch", "requestID", requestID, "cacheKey", key)
			}
		}
		if v != nil {
			entry = v.(*CacheEntry)
		}
	} else {
		entry, err = f.execute(req, key, cacheEnabled, requestID, start)
	}

	duration := time.Since(start)
	statusCode := 0
	if entry != nil {
		statusCode = entry.StatusCode
	} else if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			statusCode = fetchErr.StatusCode
		}
	}
	f.metrics.RecordRequest(req.Method, endpoint, statusCode, duration)

	if err != nil {
		return nil, err
	}
	return responseFromEntry(entry), nil
}

// execute performs the network leg of a cache miss: limiter slot, retrying
// transport, then cache fill on success.
func (f *Fetcher) execute(req *http.Request, key string, cacheEnabled bool, requestID string, start time.Time) (*CacheEntry, error) {
	endpoint := endpointFromRequest(req)

	limiter, limiterName := f.limiterFor(req)
	if limiter != nil {
		waitStart := time.Now()
		if err := limiter.Wait(req.Context()); err != nil {
			f.metrics.RecordError(ErrorTypeRateLimit, req.Method, endpoint)
			return nil, f.newError(ErrorTypeRateLimit, "canceled while waiting for rate limiter slot", err, requestID, req, 0, time.Since(start))
		}
		waited := time.Since(waitStart)
		f.metrics.RecordLimiterWait(limiterName, waited)
		if waited > 0 && f.debug != nil && f.debug.Enabled && f.debug.LogRateLimit && f.logger != nil {
			f.logger.Debug("Rate limiter wait", "requestID", requestID, "waited", waited, "limiter", limiterName)
		}
	}

	resp, attempts, err := f.doWithRetry(req, requestID, start)
	if err != nil {
		return nil, err
	}

	entry, err := newCacheEntry(resp)
	if err != nil {
		f.metrics.RecordError(ErrorTypeNetwork, req.Method, endpoint)
		return nil, f.newError(ErrorTypeNetwork, "reading response body failed", err, requestID, req, attempts, time.Since(start))
	}

	if resp.StatusCode >= 400 {
		errType := ErrorTypePermanent
		var cause error
		if f.policy.Retryable(resp.StatusCode) {
			errType = ErrorTypeTransient
			cause = ErrAttemptsExhausted
		}
		f.metrics.RecordError(errType, req.Method, endpoint)
		fetchErr := f.newError(errType, http.StatusText(resp.StatusCode), cause, requestID, req, attempts, time.Since(start))
		fetchErr.StatusCode = resp.StatusCode
		return nil, fetchErr
	}

	if cacheEnabled {
		f.cache.Set(key, entry, f.cacheTTL)
		if mem, ok := f.cache.(*MemoryCache); ok {
			f.metrics.RecordCacheSize("default", mem.Len())
		}
		if f.debug != nil && f.debug.Enabled && f.debug.LogCache && f.logger != nil {
			f.logger.Debug("Response cached", "requestID", requestID, "cacheKey", key, "ttl", f.cacheTTL)
		}
	}

	return entry, nil
}

// doWithRetry issues the request, consulting the retry policy after each
// attempt. Returns the final response (possibly a failure status) and the
// number of attempts made.
func (f *Fetcher) doWithRetry(req *http.Request, requestID string, start time.Time) (*http.Response, int, error) {
	endpoint := endpointFromRequest(req)

	var resp *http.Response
	var err error
	attempt := 0

	for ; ; attempt++ {
		if f.breaker != nil && !f.breaker.Allow() {
			f.metrics.RecordError(ErrorTypeCircuitOpen, req.Method, endpoint)
			return nil, attempt, f.newError(ErrorTypeCircuitOpen, "circuit breaker is open", ErrCircuitOpen, requestID, req, attempt, time.Since(start))
		}

		if attempt > 0 {
			f.metrics.RecordRetry(req.Method, endpoint, attempt)
			if f.debug != nil && f.debug.Enabled && f.debug.LogRetries && f.logger != nil {
				f.logger.Info("Retry attempt", "requestID", requestID, "attempt", attempt, "maxAttempts", f.policy.MaxAttempts(), "endpoint", endpoint)
			}
			if req.Body != nil && req.GetBody != nil {
				if body, bodyErr := req.GetBody(); bodyErr == nil {
					req.Body = body
				}
			}
		}

		resp, err = f.httpClient.Do(req)

		if f.breaker != nil {
			if err != nil || resp.StatusCode >= 500 {
				f.breaker.RecordFailure()
			} else {
				f.breaker.RecordSuccess()
			}
			f.metrics.RecordCircuitBreakerState("default", f.breaker.State())
		}

		delay, retry := f.policy.ShouldRetry(req, resp, err, attempt)
		if !retry {
			break
		}

		if resp != nil {
			drainAndClose(resp.Body)
		}

		if f.debug != nil && f.debug.Enabled && f.debug.LogRetries && f.logger != nil {
			f.logger.Info("Scheduling retry", "requestID", requestID, "attempt", attempt+1, "backoff", delay, "endpoint", endpoint)
		}

		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			f.metrics.RecordError(ErrorTypeTimeout, req.Method, endpoint)
			return nil, attempt + 1, f.newError(ErrorTypeTimeout, "fetch canceled during backoff", req.Context().Err(), requestID, req, attempt+1, time.Since(start))
		}
	}

	if err != nil {
		errType := ErrorTypeNetwork
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			errType = ErrorTypeTimeout
		}
		f.metrics.RecordError(errType, req.Method, endpoint)
		return nil, attempt + 1, f.newError(errType, "request failed", err, requestID, req, attempt+1, time.Since(start))
	}

	return resp, attempt + 1, nil
}

// limiterFor resolves the limiter governing req. A registry with a nil
// fallback defers unmatched hosts to the Fetcher's default limiter here, so
// WithRateLimit applies regardless of option order.
func (f *Fetcher) limiterFor(req *http.Request) (Limiter, string) {
	if f.registry != nil {
		if limiter, name := f.registry.LimiterFor(req); limiter != nil {
			return limiter, name
		}
	}
	if f.limiter != nil {
		return f.limiter, "default"
	}
	return nil, "default"
}

func (f *Fetcher) newError(errorType, message string, cause error, requestID string, req *http.Request, attempt int, duration time.Duration) *FetchError {
	return &FetchError{
		Type:       errorType,
		Message:    message,
		Cause:      cause,
		RequestID:  requestID,
		Method:     req.Method,
		URL:        req.URL.String(),
		Attempt:    attempt,
		MaxRetries: f.policy.MaxAttempts(),
		Timestamp:  time.Now(),
		Duration:   duration,
	}
}

// IsValid reports whether configuration validation passed at construction.
func (f *Fetcher) IsValid() bool {
	return f.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (f *Fetcher) ValidationError() error {
	return f.validationError
}

const maxBufferedBody = 10 * 1024 * 1024

// newCacheEntry buffers the response body into an entry and closes the
// original body.
func newCacheEntry(resp *http.Response) (*CacheEntry, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBufferedBody))
	_ = resp.Body.Close()
	if err != nil && err != io.EOF {
		return nil, err
	}

	return &CacheEntry{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}, nil
}

func responseFromEntry(entry *CacheEntry) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		StatusCode:    entry.StatusCode,
		Header:        entry.Header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
	}
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBufferedBody))
	_ = body.Close()
}

func endpointFromRequest(req *http.Request) string {
	if req.URL == nil {
		return "unknown"
	}

	host := req.URL.Host
	path := req.URL.Path

	var builder strings.Builder
	builder.WriteString(host)

	if path != "" && path != "/" {
		builder.WriteString(path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}
