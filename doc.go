// Package secfetch provides a caching, rate-limited, retrying HTTP fetch
// client for polite consumption of public data APIs (SEC EDGAR and similar
// fair-access services):
//
//   - TTL response cache with lazy eviction (in-memory by default, Redis optional)
//   - Blocking rate limiter enforcing a minimum inter-call interval
//   - Bounded retries with exponential backoff, Retry-After aware
//   - Request de-duplication (merges concurrent identical in-flight fetches)
//   - Circuit breaker (open / half-open / closed states)
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area: functional options configure everything
//   - Explicit composition: a Fetcher owns its cache, limiter and retry
//     policy, so independent Fetchers never share a throttling budget
//   - Safe concurrent use of a single *Fetcher instance
//   - Extensibility via pluggable Cache, Logger and metrics
//
// Typical usage:
//
//	fetcher := secfetch.New(
//	    secfetch.WithRateLimit(10),            // calls per second
//	    secfetch.WithCacheTTL(time.Hour),
//	    secfetch.WithMaxAttempts(3),
//	    secfetch.WithDeduplication(),
//	)
//	resp, err := fetcher.Get(ctx, "https://data.sec.gov/api/xbrl/companyfacts/CIK0000320193.json")
//
// Response bodies are fully buffered so that cached and coalesced callers
// each receive an independently readable body. Only successful responses
// (status < 400) are cached; failures always propagate and are never stored.
//
// The edgar subpackage builds a SEC EDGAR client (ticker to CIK resolution,
// XBRL company facts) on top of Fetcher.
package secfetch
