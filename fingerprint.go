package secfetch

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
)

// DefaultKeyFunc fingerprints a request as METHOD:URL with the query string
// re-encoded in canonical (sorted) order, so logically identical requests
// whose parameters arrive in a different order collapse to one cache key.
func DefaultKeyFunc(req *http.Request) string {
	if req.URL == nil {
		return req.Method + ":"
	}

	u := *req.URL
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	var b strings.Builder
	b.WriteString(req.Method)
	b.WriteByte(':')
	b.WriteString(u.String())
	return b.String()
}

// Fingerprint derives a deterministic key for a logical request that is not
// naturally URL-shaped: a sha256 over the operation name and its sorted
// parameters. Two identical parameter sets always hash identically
// regardless of map iteration order.
func Fingerprint(operation string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(operation))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(params[k]))
	}

	return operation + ":" + hex.EncodeToString(h.Sum(nil))
}

// DefaultCacheCondition caches GET requests only.
func DefaultCacheCondition(req *http.Request) bool {
	return req.Method == http.MethodGet
}
