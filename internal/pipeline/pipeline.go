package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/sitefind/internal/metrics"
	"github.com/FranksOps/sitefind/internal/scraper"
	"github.com/FranksOps/sitefind/internal/serp"
	"github.com/FranksOps/sitefind/internal/upstream"
)

var (
	// ErrMissingInput is returned when the domain or the query is blank.
	ErrMissingInput = errors.New("domain and query are required")
	// ErrMissingCredentials is returned when the proxy has no API key.
	ErrMissingCredentials = errors.New("scraper API key not configured")
)

// UpstreamStatusError reports a non-2xx answer from the scraping proxy.
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("scraper API error: HTTP %d", e.StatusCode)
}

// FetchError reports a transport failure talking to the scraping proxy.
type FetchError struct {
	Message string
}

func (e *FetchError) Error() string {
	return e.Message
}

// Fetcher retrieves a page through the scraping proxy.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*upstream.Response, error)
	HasAPIKey() bool
}

var _ Fetcher = (*scraper.Fetcher)(nil)

// Outcome is the result of one site search.
type Outcome struct {
	SearchQuery string             `json:"search_query"`
	Candidates  serp.CandidateSet  `json:"candidates"`
	Best        serp.Candidate     `json:"best"`
	Found       bool               `json:"found"`
	Blocked     bool               `json:"blocked"`
	BlockedBy   string             `json:"blocked_by,omitempty"`
	Response    *upstream.Response `json:"-"`
}

// Pipeline orchestrates a site search: compose the scoped query, fetch the
// results page through the proxy, extract candidates and rank them.
type Pipeline struct {
	Google    serp.Google
	Fetcher   Fetcher
	Extractor serp.CandidateExtractor
	// Cap is the number of candidates kept per search (serp.DefaultCap when <= 0).
	Cap    int
	Logger *slog.Logger
}

// HasCredentials reports whether the fetcher can reach the proxy.
func (p *Pipeline) HasCredentials() bool {
	return p.Fetcher != nil && p.Fetcher.HasAPIKey()
}

// Run searches domain for query and returns the ranked candidates. A search
// without matches is not an error: Outcome.Found is false.
func (p *Pipeline) Run(ctx context.Context, domain, query string) (*Outcome, error) {
	if strings.TrimSpace(domain) == "" || strings.TrimSpace(query) == "" {
		return nil, ErrMissingInput
	}
	if p.Fetcher == nil {
		return nil, errors.New("pipeline: fetcher is nil")
	}
	if !p.Fetcher.HasAPIKey() {
		return nil, ErrMissingCredentials
	}
	logger := p.logger()

	searchQuery, target := p.Google.SearchURL(domain, query)
	logger.Info("searching", "search_query", searchQuery)

	res, err := p.Fetcher.Fetch(ctx, target)
	if errors.Is(err, scraper.ErrMissingAPIKey) {
		return nil, ErrMissingCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	metrics.RecordFetch(res)

	if res.Error != "" {
		logger.Error("proxy request failed", "id", res.ID, "err", res.Error)
		metrics.RecordSearch(metrics.OutcomeFetchError, -1)
		return nil, &FetchError{Message: res.Error}
	}
	if !res.OK() {
		logger.Error("proxy returned an error status", "id", res.ID, "status", res.StatusCode)
		metrics.RecordSearch(metrics.OutcomeUpstreamError, -1)
		return nil, &UpstreamStatusError{StatusCode: res.StatusCode}
	}
	logger.Debug("results page received", "id", res.ID, "bytes", len(res.Body), "duration", res.Duration)

	out := p.Evaluate(string(res.Body), query)
	out.SearchQuery = searchQuery
	out.Response = res
	out.Blocked = res.Blocked
	out.BlockedBy = res.BlockedBy

	if out.Found {
		logger.Info("match found", "url", out.Best.URL, "score", out.Best.Score, "candidates", len(out.Candidates))
		metrics.RecordSearch(metrics.OutcomeFound, len(out.Candidates))
	} else {
		logger.Warn("no results found", "search_query", searchQuery, "blocked", res.Blocked, "blocked_by", res.BlockedBy)
		metrics.RecordSearch(metrics.OutcomeNotFound, 0)
	}
	return out, nil
}

// Evaluate extracts and ranks candidates from an already fetched document.
func (p *Pipeline) Evaluate(document, query string) *Outcome {
	extractor := p.Extractor
	if extractor == nil {
		extractor = serp.NewExtractor()
	}
	ranked := serp.Rank(extractor.Extract(document, p.Cap), query)
	best, found := serp.Best(ranked)
	return &Outcome{
		Candidates: ranked,
		Best:       best,
		Found:      found,
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
