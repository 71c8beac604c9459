package secfetch

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nativequant/secfetch/internal/backoff"
)

// DefaultRetryableStatusCodes are the statuses treated as transient.
func DefaultRetryableStatusCodes() map[int]bool {
	return map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
}

// RetryPolicy decides whether a failed attempt is retried and how long to
// wait first. Immutable once constructed; consulted by the Fetcher after
// every attempt.
type RetryPolicy struct {
	maxAttempts     int
	retryableStatus map[int]bool
	backoffBase     time.Duration
	maxBackoff      time.Duration
	multiplier      float64
	jitter          float64
	strategy        backoff.Strategy
	isIdempotent    func(method string) bool
}

// NewRetryPolicy creates a policy making at most maxAttempts total attempts
// with exponential backoff starting at backoffBase (attempt n waits
// backoffBase * 2^(n-1)). Only idempotent methods are eligible for retry.
func NewRetryPolicy(maxAttempts int, backoffBase time.Duration, retryableStatus map[int]bool) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if retryableStatus == nil {
		retryableStatus = DefaultRetryableStatusCodes()
	}
	return &RetryPolicy{
		maxAttempts:     maxAttempts,
		retryableStatus: retryableStatus,
		backoffBase:     backoffBase,
		maxBackoff:      5 * time.Minute,
		multiplier:      2.0,
		jitter:          0,
		strategy:        backoff.ExponentialJitter{},
		isIdempotent:    DefaultIsIdempotent,
	}
}

// clone returns a shallow copy so option-level adjustments never mutate a
// policy the caller may still hold.
func (p *RetryPolicy) clone() *RetryPolicy {
	c := *p
	return &c
}

// MaxAttempts returns the total attempt budget.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Retryable reports whether status is in the retryable set.
func (p *RetryPolicy) Retryable(status int) bool {
	return p.retryableStatus[status]
}

// ShouldRetry reports whether another attempt of req is allowed after the
// given response/error, and the delay to wait first. attempt is 0-indexed:
// it is the number of the attempt that just completed, starting at 0.
//
// Mutating methods are never retried, whether the attempt failed with a
// response status or a transport error. Non-retryable statuses (4xx other
// than 429) never retry regardless of remaining budget. For 429 and 503
// responses a Retry-After header overrides the computed backoff.
func (p *RetryPolicy) ShouldRetry(req *http.Request, resp *http.Response, err error, attempt int) (time.Duration, bool) {
	if attempt+1 >= p.maxAttempts {
		return 0, false
	}

	if req != nil && !p.isIdempotent(req.Method) {
		return 0, false
	}

	var delay time.Duration
	retry := false

	if err != nil {
		retry = true
	} else if resp != nil && p.retryableStatus[resp.StatusCode] {
		retry = true
		delay = parseRetryAfter(resp.Header.Get("Retry-After"))
	}

	if !retry {
		return 0, false
	}

	if delay == 0 {
		delay = p.strategy.Calculate(attempt, p.backoffBase, p.maxBackoff, p.multiplier, p.jitter)
	}
	return delay, true
}

// DefaultIsIdempotent returns true for idempotent HTTP methods.
func DefaultIsIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// parseRetryAfter parses a Retry-After header value, supporting both
// delay-seconds and HTTP-date formats. Delays are capped at one hour.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds > 0 {
			delay := time.Duration(seconds) * time.Second
			if delay > time.Hour {
				delay = time.Hour
			}
			return delay
		}
		return 0
	}

	if t, err := http.ParseTime(value); err == nil {
		delay := time.Until(t)
		if delay > 0 && delay <= time.Hour {
			return delay
		}
	}

	return 0
}
