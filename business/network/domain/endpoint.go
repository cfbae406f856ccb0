// Package domain contains the core types for RPC endpoint selection.
package domain

import (
	"net/url"
	"time"
)

// Endpoint is an RPC endpoint URL. Two endpoints are the same iff their
// strings are equal.
type Endpoint string

func (e Endpoint) String() string {
	return string(e)
}

// Host returns the endpoint host for logs and metric labels, falling back
// to the raw string when it does not parse as a URL.
func (e Endpoint) Host() string {
	u, err := url.Parse(string(e))
	if err != nil || u.Host == "" {
		return string(e)
	}
	return u.Host
}

// Endpoints converts raw URLs to Endpoints.
func Endpoints(urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	for i, u := range urls {
		out[i] = Endpoint(u)
	}
	return out
}

// ProbeResult is the outcome of probing one endpoint.
type ProbeResult struct {
	Endpoint    Endpoint
	Latency     time.Duration // request start to response
	Freshness   time.Duration // now minus latest block timestamp
	BlockNumber uint64
	Reachable   bool
	Err         error
}

// Viable reports whether the endpoint answered and its head is at most maxAge old.
func (r ProbeResult) Viable(maxAge time.Duration) bool {
	return r.Reachable && r.Freshness <= maxAge
}

// Best returns the viable result with the lowest latency. Ties keep input
// order. ok is false when no result is viable.
func Best(results []ProbeResult, maxAge time.Duration) (best ProbeResult, ok bool) {
	for _, r := range results {
		if !r.Viable(maxAge) {
			continue
		}
		if !ok || r.Latency < best.Latency {
			best, ok = r, true
		}
	}
	return best, ok
}

// Selection is the endpoint chosen by a probe pass and when it was chosen.
type Selection struct {
	Endpoint    Endpoint
	SelectedAt  time.Time
	Latency     time.Duration
	BlockNumber uint64
	Fallback    bool // no endpoint was viable; the first configured one was used
}

// Age returns how long ago the selection was made.
func (s Selection) Age(now time.Time) time.Duration {
	return now.Sub(s.SelectedAt)
}
