// Package edgar is a SEC EDGAR client built on the secfetch Fetcher. It
// resolves tickers to CIK numbers, loads XBRL company facts and extracts
// individual financial metrics, with SEC-compliant rate limiting (10
// requests/second), a one-hour response cache and bounded retries.
//
// The SEC fair-access policy requires a descriptive User-Agent identifying
// the caller (e.g. "Example Corp admin@example.com"); NewClient refuses an
// empty one.
package edgar

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nativequant/secfetch"
)

const (
	defaultTickerURL    = "https://www.sec.gov/include/ticker.txt"
	defaultFactsBaseURL = "https://data.sec.gov/api/xbrl/companyfacts"

	// SEC fair-access policy allows at most 10 requests per second.
	secRateLimit = 10
)

// ErrUserAgentRequired is returned when a Client is constructed without a
// User-Agent string.
var ErrUserAgentRequired = errors.New("edgar: a descriptive User-Agent is required by SEC fair-access policy")

// ErrCIKNotFound is returned when a ticker has no CIK mapping.
var ErrCIKNotFound = errors.New("edgar: no CIK found for ticker")

// Getter is the fetch surface the client needs; satisfied by
// *secfetch.Fetcher and easily faked in tests.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Client talks to SEC EDGAR.
type Client struct {
	fetcher      Getter
	userAgent    string
	tickerURL    string
	factsBaseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithFetcher replaces the default Fetcher (to share one across clients or
// to substitute a fake in tests).
func WithFetcher(f Getter) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithBaseURLs overrides the EDGAR endpoints, mainly for tests against a
// local server. Empty strings keep the defaults.
func WithBaseURLs(tickerURL, factsBaseURL string) ClientOption {
	return func(c *Client) {
		if tickerURL != "" {
			c.tickerURL = tickerURL
		}
		if factsBaseURL != "" {
			c.factsBaseURL = strings.TrimSuffix(factsBaseURL, "/")
		}
	}
}

// NewClient creates an EDGAR client. userAgent must identify the caller
// per SEC policy. The default fetcher uses SEC-compliant settings: 10
// calls/s, one-hour cache, 3 attempts, de-duplication of concurrent
// identical requests.
func NewClient(userAgent string, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, ErrUserAgentRequired
	}

	c := &Client{
		userAgent:    userAgent,
		tickerURL:    defaultTickerURL,
		factsBaseURL: defaultFactsBaseURL,
	}

	for _, option := range options {
		option(c)
	}

	if c.fetcher == nil {
		c.fetcher = secfetch.New(
			secfetch.WithRateLimit(secRateLimit),
			secfetch.WithCacheTTL(time.Hour),
			secfetch.WithMaxAttempts(3),
			secfetch.WithDeduplication(),
		)
	}

	return c, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	if doer, ok := c.fetcher.(interface {
		Do(*http.Request) (*http.Response, error)
	}); ok {
		return doer.Do(req)
	}
	return c.fetcher.Get(ctx, url)
}

// CIKForTicker resolves a ticker symbol to its zero-padded 10-digit CIK
// using the SEC's ticker mapping file. Lookup is case-insensitive.
func (c *Client) CIKForTicker(ctx context.Context, ticker string) (string, error) {
	resp, err := c.get(ctx, c.tickerURL)
	if err != nil {
		return "", fmt.Errorf("fetching ticker mapping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	want := strings.ToLower(strings.TrimSpace(ticker))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		if strings.ToLower(fields[0]) == want {
			return padCIK(fields[1]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading ticker mapping: %w", err)
	}

	return "", fmt.Errorf("%w: %s", ErrCIKNotFound, ticker)
}

// CompanyFacts fetches all XBRL facts filed by the company with the given
// CIK (zero-padded or not).
func (c *Client) CompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	url := fmt.Sprintf("%s/CIK%s.json", c.factsBaseURL, padCIK(cik))

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching company facts for CIK %s: %w", cik, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var facts CompanyFacts
	if err := json.NewDecoder(resp.Body).Decode(&facts); err != nil {
		return nil, fmt.Errorf("decoding company facts for CIK %s: %w", cik, err)
	}
	return &facts, nil
}

// FinancialData resolves ticker to a CIK, loads its company facts and
// extracts the requested metrics (keys of MetricTags) within the date
// range. Nil metrics retrieves all known metrics; zero times disable the
// corresponding bound.
func (c *Client) FinancialData(ctx context.Context, ticker string, start, end time.Time, metrics []string) (*FinancialData, error) {
	cik, err := c.CIKForTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	facts, err := c.CompanyFacts(ctx, cik)
	if err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = make([]string, 0, len(MetricTags))
		for name := range MetricTags {
			metrics = append(metrics, name)
		}
	}

	data := &FinancialData{
		Ticker:      strings.ToUpper(ticker),
		CompanyName: facts.EntityName,
		CIK:         cik,
		Metrics:     make(map[string][]MetricPoint, len(metrics)),
	}

	for _, name := range metrics {
		tag, ok := MetricTags[name]
		if !ok {
			return nil, fmt.Errorf("edgar: unrecognized metric %q", name)
		}
		data.Metrics[name] = facts.ExtractMetric(tag, start, end)
	}

	return data, nil
}

// padCIK left-pads a CIK to the 10 digits EDGAR URLs expect.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}
