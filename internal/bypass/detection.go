package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/FranksOps/sitefind/internal/upstream"
)

// Detector examines an upstream response to determine whether the search
// engine served a block or challenge page instead of results.
type Detector func(res *upstream.Response) (detected bool, source string)

// DefaultDetectors returns the standard list of block page detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectRecaptcha,
		detectCloudflare,
	}
}

// Analyze runs the response through all provided detectors. It updates the
// response in place with the detection status and returns true if any
// detection triggered. Detection only labels the response; the page is still
// handed to extraction, which yields no candidates for a block page.
func Analyze(res *upstream.Response, detectors []Detector) bool {
	if res == nil {
		return false
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			res.Blocked = true
			res.BlockedBy = source
			return true
		}
	}
	res.Blocked = false
	res.BlockedBy = ""
	return false
}

// detectGoogleSorry looks for Google's "unusual traffic" interstitial. The
// proxy may relay it with a 200, so the body is checked for any status.
func detectGoogleSorry(res *upstream.Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests &&
		strings.Contains(strings.ToLower(res.Header("Server")), "gws") {
		return true, "Google"
	}
	if bytes.Contains(res.Body, []byte("Our systems have detected unusual traffic")) ||
		bytes.Contains(res.Body, []byte("I nostri sistemi hanno rilevato traffico insolito")) ||
		bytes.Contains(res.Body, []byte("/sorry/index?continue=")) {
		return true, "Google"
	}
	return false, ""
}

// detectRecaptcha looks for an embedded reCAPTCHA challenge form.
func detectRecaptcha(res *upstream.Response) (bool, string) {
	if bytes.Contains(res.Body, []byte("g-recaptcha")) ||
		bytes.Contains(res.Body, []byte("www.google.com/recaptcha/api")) {
		return true, "reCAPTCHA"
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures,
// which show up when the proxy itself is challenged.
func detectCloudflare(res *upstream.Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusServiceUnavailable {
		server := strings.ToLower(res.Header("Server"))
		if strings.Contains(server, "cloudflare") {
			return true, "Cloudflare"
		}

		if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
			bytes.Contains(res.Body, []byte("cf-turnstile")) ||
			bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}
