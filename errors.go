package secfetch

import (
	"errors"
	"fmt"
	"time"
)

// Error type constants carried in FetchError.Type.
const (
	// ErrorTypeTransient marks a retryable failure that survived the full
	// attempt budget (retryable status or network fault on every attempt).
	ErrorTypeTransient = "Transient"
	// ErrorTypePermanent marks a non-retryable status (4xx other than 429).
	ErrorTypePermanent = "Permanent"
	// ErrorTypeNetwork marks a transport-level failure (DNS, connect, TLS).
	ErrorTypeNetwork = "Network"
	// ErrorTypeTimeout marks a fetch aborted by deadline or cancellation.
	ErrorTypeTimeout = "Timeout"
	// ErrorTypeRateLimit marks a limiter wait aborted before a slot opened.
	ErrorTypeRateLimit = "RateLimit"
	// ErrorTypeCircuitOpen marks a fetch rejected by an open circuit breaker.
	ErrorTypeCircuitOpen = "CircuitOpen"
)

// Sentinel errors for common failure scenarios.
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state.
	ErrCircuitOpen = errors.New("secfetch: circuit open")

	// ErrAttemptsExhausted is returned when every attempt in the retry
	// budget failed with a retryable error.
	ErrAttemptsExhausted = errors.New("secfetch: retry attempts exhausted")
)

// FetchError is the error surfaced by a Fetcher. It carries enough context
// for the caller to distinguish transient-after-retries from permanent
// failures and to decide whether to degrade gracefully.
type FetchError struct {
	Type       string
	Message    string
	Cause      error
	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Attempt    int
	MaxRetries int
	Timestamp  time.Time
	Duration   time.Duration
}

// IsTransient reports whether err represents a failure that might succeed
// if the fetch is repeated: network faults, timeouts, retryable statuses
// (429 and 5xx) and circuit breaker rejections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrAttemptsExhausted) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Type {
		case ErrorTypeTransient, ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeCircuitOpen:
			return true
		case ErrorTypePermanent:
			return fetchErr.StatusCode == 429
		default:
			return false
		}
	}

	return false
}

// IsPermanent reports whether err is a non-retryable transport failure.
func IsPermanent(err error) bool {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Type == ErrorTypePermanent && fetchErr.StatusCode != 429
	}
	return false
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *FetchError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*FetchError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *FetchError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.Attempt > 0 {
		info += fmt.Sprintf("Attempt: %d/%d\n", e.Attempt, e.MaxRetries)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
