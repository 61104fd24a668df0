package serp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Google composes site-restricted Google search URLs. The zero value targets
// the Italian index with ten results per page.
type Google struct {
	Language   string
	Country    string
	NumResults int
}

// SearchURL returns the scoped search phrase and the Google results URL that
// serves it.
func (g Google) SearchURL(domain, query string) (searchQuery, target string) {
	lang := g.Language
	if lang == "" {
		lang = "it"
	}
	country := g.Country
	if country == "" {
		country = "it"
	}
	num := g.NumResults
	if num <= 0 {
		num = DefaultCap
	}

	searchQuery = BuildQuery(domain, query)
	target = fmt.Sprintf("https://www.google.com/search?q=%s&hl=%s&gl=%s&num=%s",
		url.QueryEscape(searchQuery), url.QueryEscape(lang), url.QueryEscape(country), strconv.Itoa(num))
	return searchQuery, target
}

// CleanDomain strips the wildcard and dot suffixes users tend to paste
// ("example.*", "example.com.") from a domain.
func CleanDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimSuffix(d, ".*")
	d = strings.TrimSuffix(d, "*")
	d = strings.TrimSuffix(d, ".")
	return strings.TrimSpace(d)
}

// BuildQuery returns the phrase search for query restricted to domain.
func BuildQuery(domain, query string) string {
	return fmt.Sprintf(`site:%s "%s"`, CleanDomain(domain), query)
}

// DefaultExclusions lists host substrings that never identify an organic
// result: the engine itself, its video property, cache mirrors and the
// account, policy and support subdomains. Matching is a plain substring test
// on the host, which is coarse on purpose.
var DefaultExclusions = []string{
	"google.com",
	"google.it",
	"youtube.com",
	"googleusercontent.com",
	"gstatic.com",
	"googleadservices.com",
	"accounts.google",
	"policies.google",
	"support.google",
}

// DefaultURLMatchers returns the result-link rules in priority order.
func DefaultURLMatchers() []Matcher {
	return []Matcher{
		// <a href="/url?q=https://target&sa=U...">
		NewRegexpMatcher("redirect-q", `<a(?:\s[^>]*)?\shref="/url\?q=([^"&]+)[^"]*"`),
		// <a href="/url?esrc=s&amp;...&amp;url=https://target&amp;...">
		NewRegexpMatcher("redirect-url", `<a(?:\s[^>]*)?\shref="/url\?[^"]*?[?&;]url=([^"&]+)[^"]*"`),
		// result anchors carry jsname/data-ved markers before or after href
		NewRegexpMatcher("marked-link",
			`<a(?:\s[^>]*)?\s(?:jsname|data-ved)="[^"]*"(?:\s[^>]*)?\shref="(https?://[^"]+)"|<a(?:\s[^>]*)?\shref="(https?://[^"]+)"(?:\s[^>]*)?\s(?:jsname|data-ved)="`),
		NewRegexpMatcher("absolute-link", `<a(?:\s[^>]*)?\shref="(https?://[^"]+)"`),
	}
}

// DefaultTitleMatchers returns the heading rules in priority order.
func DefaultTitleMatchers() []Matcher {
	return []Matcher{
		NewRegexpMatcher("h3", `<h3[^>]*>(.*?)</h3>`),
		NewRegexpMatcher("basic-title", `<div[^>]*class="[^"]*\bvvjwJb\b[^"]*"[^>]*>(.*?)</div>`),
	}
}

// DefaultSnippetMatchers returns the snippet rules in priority order.
func DefaultSnippetMatchers() []Matcher {
	return []Matcher{
		NewRegexpMatcher("vwic3b", `<div[^>]*class="[^"]*VwiC3b[^"]*"[^>]*>(.*?)</div>`),
		NewRegexpMatcher("basic-snippet", `<div[^>]*class="[^"]*\bs3v9rd\b[^"]*"[^>]*>(.*?)</div>`),
		NewRegexpMatcher("legacy-snippet", `<span[^>]*class="[^"]*\baCOpRe\b[^"]*"[^>]*>(.*?)</span>`),
	}
}
