package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/FranksOps/sitefind/internal/pipeline"
	"github.com/FranksOps/sitefind/internal/serp"
	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubSearcher implements Searcher for testing.
type stubSearcher struct {
	key    bool
	out    *pipeline.Outcome
	err    error
	domain string
	query  string
	calls  int
}

func (s *stubSearcher) HasCredentials() bool { return s.key }

func (s *stubSearcher) Run(_ context.Context, domain, query string) (*pipeline.Outcome, error) {
	s.calls++
	s.domain, s.query = domain, query
	if domain == "" || query == "" {
		return nil, pipeline.ErrMissingInput
	}
	return s.out, s.err
}

func newTestServer(s Searcher, origins ...string) *Server {
	return NewServer(s, Options{
		AllowedOrigins: origins,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return m
}

func TestHandleStatus(t *testing.T) {
	for _, key := range []bool{true, false} {
		srv := newTestServer(&stubSearcher{key: key})
		w := doJSON(t, srv.Handler(), http.MethodGet, "/", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := decode(t, w)
		if body["status"] != "ok" || body["message"] == "" {
			t.Errorf("unexpected status body %v", body)
		}
		if body["hasApiKey"] != key {
			t.Errorf("expected hasApiKey=%v, got %v", key, body["hasApiKey"])
		}
	}
}

func TestHandleSearch_Found(t *testing.T) {
	s := &stubSearcher{key: true, out: &pipeline.Outcome{
		Found: true,
		Best:  serp.Candidate{URL: "https://www.example.com/b", Title: "Cherry tart", Snippet: "Tart cherries."},
	}}
	srv := newTestServer(s)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/search", `{"domain":" example.com ","query":"cherry tart"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["url"] != "https://www.example.com/b" || body["title"] != "Cherry tart" || body["description"] != "Tart cherries." {
		t.Errorf("unexpected body %v", body)
	}
	if v, ok := body["error"]; !ok || v != nil {
		t.Errorf("expected error to be null, got %v (present=%v)", v, ok)
	}
	if s.domain != "example.com" {
		t.Errorf("expected trimmed domain, got %q", s.domain)
	}
}

func TestHandleSearch_Responses(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		searcher  *stubSearcher
		wantCode  int
		wantError string
		envelope  bool
	}{
		{
			name:      "not found",
			body:      `{"domain":"example.com","query":"x"}`,
			searcher:  &stubSearcher{key: true, out: &pipeline.Outcome{}},
			wantCode:  http.StatusOK,
			wantError: "no results found",
			envelope:  true,
		},
		{
			name:      "missing query",
			body:      `{"domain":"example.com"}`,
			searcher:  &stubSearcher{key: true},
			wantCode:  http.StatusBadRequest,
			wantError: "domain and query are required",
		},
		{
			name:      "blank domain",
			body:      `{"domain":"   ","query":"x"}`,
			searcher:  &stubSearcher{key: true},
			wantCode:  http.StatusBadRequest,
			wantError: "domain and query are required",
		},
		{
			name:      "malformed json",
			body:      `{"domain":`,
			searcher:  &stubSearcher{key: true},
			wantCode:  http.StatusBadRequest,
			wantError: "domain and query are required",
		},
		{
			name:      "missing key",
			body:      `{"domain":"example.com","query":"x"}`,
			searcher:  &stubSearcher{err: pipeline.ErrMissingCredentials},
			wantCode:  http.StatusInternalServerError,
			wantError: "scraper API key not configured",
		},
		{
			name:      "upstream status",
			body:      `{"domain":"example.com","query":"x"}`,
			searcher:  &stubSearcher{key: true, err: &pipeline.UpstreamStatusError{StatusCode: 403}},
			wantCode:  http.StatusInternalServerError,
			wantError: "scraper API error: HTTP 403",
			envelope:  true,
		},
		{
			name:      "transport failure",
			body:      `{"domain":"example.com","query":"x"}`,
			searcher:  &stubSearcher{key: true, err: &pipeline.FetchError{Message: "request failed: timeout"}},
			wantCode:  http.StatusInternalServerError,
			wantError: "error: request failed: timeout",
			envelope:  true,
		},
		{
			name:      "unexpected failure",
			body:      `{"domain":"example.com","query":"x"}`,
			searcher:  &stubSearcher{key: true, err: errors.New("boom")},
			wantCode:  http.StatusInternalServerError,
			wantError: "error: boom",
			envelope:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.searcher)
			w := doJSON(t, srv.Handler(), http.MethodPost, "/api/search", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			body := decode(t, w)
			if body["error"] != tt.wantError {
				t.Errorf("expected error %q, got %v", tt.wantError, body["error"])
			}
			_, hasURL := body["url"]
			if hasURL != tt.envelope {
				t.Errorf("expected envelope=%v, got body %v", tt.envelope, body)
			}
			if tt.envelope && (body["url"] != "" || body["title"] != "" || body["description"] != "") {
				t.Errorf("expected empty result fields, got %v", body)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(&stubSearcher{})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/", "")
	if id := w.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("expected generated uuid, got %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-ID", "trace-abc")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "trace-abc" {
		t.Errorf("expected inbound id to be kept, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	t.Run("wildcard preflight", func(t *testing.T) {
		srv := newTestServer(&stubSearcher{})
		req := httptest.NewRequest(http.MethodOptions, "/api/search", http.NoBody)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected wildcard origin, got %q", got)
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Errorf("expected POST to be allowed")
		}
	})

	t.Run("restricted origins", func(t *testing.T) {
		srv := newTestServer(&stubSearcher{}, "https://app.example")

		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("Origin", "https://app.example")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("expected echoed origin, got %q", got)
		}

		req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("Origin", "https://evil.example")
		w = httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header for foreign origin, got %q", got)
		}
	})
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	srv := NewServer(&stubSearcher{key: true, out: &pipeline.Outcome{}}, Options{
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
	})

	doJSON(t, srv.Handler(), http.MethodPost, "/api/search", `{"domain":"example.com","query":"x"}`)

	out := buf.String()
	for _, want := range []string{`"msg":"HTTP request"`, `"path":"/api/search"`, `"status":200`, `"request_id":"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in log output %s", want, out)
		}
	}
}

func TestServer_ListenAndShutdown(t *testing.T) {
	srv := NewServer(&stubSearcher{}, Options{Port: 18932, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}
}
