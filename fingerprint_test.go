package secfetch

import (
	"net/http"
	"testing"
)

func mustRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func TestDefaultKeyFuncQueryOrderInsensitive(t *testing.T) {
	r1 := mustRequest(t, "https://data.sec.gov/api/data?ticker=AAPL&start=2024-01-01&end=2024-01-31")
	r2 := mustRequest(t, "https://data.sec.gov/api/data?end=2024-01-31&ticker=AAPL&start=2024-01-01")

	if DefaultKeyFunc(r1) != DefaultKeyFunc(r2) {
		t.Errorf("reordered query params produced different keys:\n%s\n%s", DefaultKeyFunc(r1), DefaultKeyFunc(r2))
	}
}

func TestDefaultKeyFuncDistinguishesRequests(t *testing.T) {
	keys := map[string]bool{}
	for _, url := range []string{
		"https://data.sec.gov/api/data?ticker=AAPL",
		"https://data.sec.gov/api/data?ticker=MSFT",
		"https://data.sec.gov/api/data",
		"https://www.sec.gov/api/data?ticker=AAPL",
	} {
		keys[DefaultKeyFunc(mustRequest(t, url))] = true
	}
	if len(keys) != 4 {
		t.Errorf("expected 4 distinct keys, got %d", len(keys))
	}
}

func TestDefaultKeyFuncIncludesMethod(t *testing.T) {
	get := mustRequest(t, "https://example.com/x")
	head, _ := http.NewRequest(http.MethodHead, "https://example.com/x", nil)

	if DefaultKeyFunc(get) == DefaultKeyFunc(head) {
		t.Error("expected method to be part of the key")
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	p1 := map[string]string{"ticker": "AAPL", "start": "2024-01-01", "end": "2024-01-31"}
	p2 := map[string]string{"end": "2024-01-31", "start": "2024-01-01", "ticker": "AAPL"}

	if Fingerprint("companyfacts", p1) != Fingerprint("companyfacts", p2) {
		t.Error("identical parameter sets hashed differently")
	}
}

func TestFingerprintDistinguishes(t *testing.T) {
	base := map[string]string{"ticker": "AAPL"}
	other := map[string]string{"ticker": "MSFT"}

	if Fingerprint("companyfacts", base) == Fingerprint("companyfacts", other) {
		t.Error("different parameters hashed identically")
	}
	if Fingerprint("companyfacts", base) == Fingerprint("cik", base) {
		t.Error("different operations hashed identically")
	}
}

func TestDefaultCacheCondition(t *testing.T) {
	get := mustRequest(t, "https://example.com/")
	if !DefaultCacheCondition(get) {
		t.Error("expected GET to be cacheable")
	}

	post, _ := http.NewRequest(http.MethodPost, "https://example.com/", nil)
	if DefaultCacheCondition(post) {
		t.Error("expected POST to not be cacheable")
	}
}
