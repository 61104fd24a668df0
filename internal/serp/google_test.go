package serp

import (
	"net/url"
	"testing"
)

func TestCleanDomain(t *testing.T) {
	tests := map[string]string{
		"example.com":    "example.com",
		"example.*":      "example",
		"example.com*":   "example.com",
		"example.com.":   "example.com",
		"  example.it  ": "example.it",
		"example.it. ":   "example.it",
		"sub.example.*":  "sub.example",
	}
	for in, want := range tests {
		if got := CleanDomain(in); got != want {
			t.Errorf("CleanDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("example.*", "Example Page Result")
	want := `site:example "Example Page Result"`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestGoogle_SearchURL(t *testing.T) {
	q, target := Google{}.SearchURL("example.com", "pasta fresca")
	if q != `site:example.com "pasta fresca"` {
		t.Errorf("unexpected search query %s", q)
	}

	u, err := url.Parse(target)
	if err != nil {
		t.Fatalf("target does not parse: %v", err)
	}
	if u.Host != "www.google.com" || u.Path != "/search" {
		t.Errorf("unexpected target %s", target)
	}
	params := u.Query()
	if params.Get("q") != q {
		t.Errorf("expected q=%s, got %s", q, params.Get("q"))
	}
	if params.Get("hl") != "it" || params.Get("gl") != "it" || params.Get("num") != "10" {
		t.Errorf("unexpected defaults in %s", target)
	}

	_, target = Google{Language: "en", Country: "us", NumResults: 20}.SearchURL("example.com", "x")
	u, _ = url.Parse(target)
	if u.Query().Get("hl") != "en" || u.Query().Get("gl") != "us" || u.Query().Get("num") != "20" {
		t.Errorf("expected overrides to apply, got %s", target)
	}
}
