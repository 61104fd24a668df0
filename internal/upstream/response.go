package upstream

import (
	"strings"
	"time"
)

// Response represents the outcome of a single fetch through the scraping proxy.
type Response struct {
	ID string
	// URL is the page requested through the proxy. The proxy URL itself
	// carries the API key and is never stored.
	URL         string
	StatusCode  int
	Headers     map[string][]string
	Body        []byte
	ContentType string
	Duration    time.Duration
	Blocked     bool
	BlockedBy   string // e.g. "Google", "reCAPTCHA", "Cloudflare"
	CreatedAt   time.Time
	Error       string // non-empty if the fetch failed before an HTTP response
}

// OK reports whether the proxy answered with a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}

// Header returns the first value of key, matching case-insensitively.
func (r *Response) Header(key string) string {
	if r == nil {
		return ""
	}
	if vals, ok := r.Headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	for k, vals := range r.Headers {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
