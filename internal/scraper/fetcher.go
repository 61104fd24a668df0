package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/FranksOps/sitefind/internal/bypass"
	"github.com/FranksOps/sitefind/internal/upstream"
	"github.com/FranksOps/sitefind/pkg/httpclient"
	"github.com/google/uuid"
	"golang.org/x/net/html/charset"
)

// DefaultEndpoint is the ScraperAPI entry point.
const DefaultEndpoint = "http://api.scraperapi.com/"

// ErrMissingAPIKey is returned by Fetch when no proxy API key is configured.
var ErrMissingAPIKey = errors.New("scraper: API key not configured")

// FetchConfig configures the scraping proxy fetcher.
type FetchConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	// Detectors label block pages. Nil means bypass.DefaultDetectors().
	Detectors []bypass.Detector
	// Transport replaces the default transport, e.g. in tests.
	Transport http.RoundTripper
}

// Fetcher retrieves pages through the scraping proxy. The proxy performs the
// actual request to the target; the Fetcher only talks to the proxy.
type Fetcher struct {
	config   FetchConfig
	endpoint *url.URL
	client   *httpclient.Client
	logger   *slog.Logger
}

// NewFetcher initializes a new Fetcher with the given configuration. A
// missing API key is not an error here; Fetch reports it so the service can
// start and surface the problem per request.
func NewFetcher(cfg FetchConfig, logger *slog.Logger) (*Fetcher, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid proxy endpoint %q: scheme must be http or https", cfg.Endpoint)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 5,
		Headers: http.Header{
			"Accept": {"text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"},
		},
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config:   cfg,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}, nil
}

// HasAPIKey reports whether a proxy API key is configured.
func (f *Fetcher) HasAPIKey() bool {
	return f.config.APIKey != ""
}

// proxyURL wraps targetURL into a proxy request URL.
func (f *Fetcher) proxyURL(targetURL string) string {
	u := *f.endpoint
	q := u.Query()
	q.Set("api_key", f.config.APIKey)
	q.Set("url", targetURL)
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch asks the proxy for targetURL. Transport failures are recorded on the
// returned response rather than returned as errors; the error return is
// reserved for a missing API key.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*upstream.Response, error) {
	if !f.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	start := time.Now()
	result := &upstream.Response{
		ID:        uuid.New().String(),
		URL:       targetURL,
		CreatedAt: start.UTC(),
	}

	f.logger.Debug("fetching through proxy", "id", result.ID, "target", targetURL)

	resp, err := f.client.Get(ctx, f.proxyURL(targetURL))
	if err != nil {
		// url.Error embeds the proxy URL, and with it the API key.
		result.Error = fmt.Sprintf("request failed: %v", redact(err))
		result.Duration = time.Since(start)
		return result, nil
	}

	body, err := f.client.ReadBody(resp)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read body: %v", err)
	}

	result.StatusCode = resp.StatusCode
	result.Headers = resp.Header
	result.ContentType = resp.Header.Get("Content-Type")
	result.Body = toUTF8(body, result.ContentType)
	result.Duration = time.Since(start)

	if bypass.Analyze(result, f.config.Detectors) {
		f.logger.Warn("upstream served a block page", "id", result.ID, "source", result.BlockedBy, "status", result.StatusCode)
	}

	return result, nil
}

// toUTF8 decodes body according to its declared or sniffed charset. Bodies
// that cannot be decoded are returned unchanged.
func toUTF8(body []byte, contentType string) []byte {
	if len(body) == 0 {
		return body
	}
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	// Sniffing only looks at the first KB, so trust valid UTF-8 over a guess.
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}

// redact strips the request URL from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s proxy: %w", uerr.Op, uerr.Err)
	}
	return err
}
