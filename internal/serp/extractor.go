package serp

import (
	"html"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultScanCeiling bounds how many URLs the link rules collect before
	// they stop scanning, so pathological documents stay cheap.
	DefaultScanCeiling = 20

	titleNoiseLen   = 5
	snippetNoiseLen = 10
)

// Extractor scans a results document with independent flat rule lists for
// links, titles and snippets and pairs them up by position.
//
// Positional pairing means the i-th title is not guaranteed to belong to the
// i-th link; Rank scores each candidate by its title, which pushes well-aligned
// pairs to the top. StructuredExtractor reads all three from the same result
// block instead.
type Extractor struct {
	URLMatchers     []Matcher
	TitleMatchers   []Matcher
	SnippetMatchers []Matcher
	// Exclusions are host substrings whose links are dropped.
	Exclusions  []string
	ScanCeiling int
}

// NewExtractor returns an Extractor with the default Google rule set.
func NewExtractor() *Extractor {
	return &Extractor{
		URLMatchers:     DefaultURLMatchers(),
		TitleMatchers:   DefaultTitleMatchers(),
		SnippetMatchers: DefaultSnippetMatchers(),
		Exclusions:      DefaultExclusions,
		ScanCeiling:     DefaultScanCeiling,
	}
}

// Extract returns at most limit candidates (DefaultCap when limit <= 0) in
// discovery order. Malformed input yields fewer candidates, never an error.
func (e *Extractor) Extract(document string, limit int) CandidateSet {
	if limit <= 0 {
		limit = DefaultCap
	}
	doc := normalizeWhitespace(document)

	urls := e.discoverURLs(doc)
	titles := firstTexts(doc, e.TitleMatchers, titleNoiseLen)
	snippets := firstTexts(doc, e.SnippetMatchers, snippetNoiseLen)

	if len(urls) > limit {
		urls = urls[:limit]
	}
	set := make(CandidateSet, 0, len(urls))
	for i, u := range urls {
		c := Candidate{URL: u, Title: u}
		if i < len(titles) {
			c.Title = titles[i]
		}
		if i < len(snippets) {
			c.Snippet = snippets[i]
		}
		set = append(set, c)
	}
	return set
}

func (e *Extractor) discoverURLs(doc string) []string {
	ceiling := e.ScanCeiling
	if ceiling <= 0 {
		ceiling = DefaultScanCeiling
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, m := range e.URLMatchers {
		if len(urls) >= ceiling {
			break
		}
		for _, raw := range m.Match(doc) {
			if len(urls) >= ceiling {
				break
			}
			u, key, ok := acceptURL(raw, e.Exclusions)
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

// acceptURL decodes a captured link. It returns the decoded link as is and,
// as key, the link without its fragment for deduplication. ok is false when
// the link cannot be decoded, is not absolute, or points at an excluded host.
func acceptURL(raw string, exclusions []string) (link, key string, ok bool) {
	decoded, err := url.PathUnescape(html.UnescapeString(raw))
	if err != nil {
		return "", "", false
	}
	u, err := url.Parse(decoded)
	if err != nil {
		return "", "", false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", false
	}
	if isExcluded(u.Hostname(), exclusions) {
		return "", "", false
	}
	key, _, _ = strings.Cut(decoded, "#")
	return decoded, key, true
}

func isExcluded(host string, exclusions []string) bool {
	host = strings.ToLower(host)
	for _, ex := range exclusions {
		if strings.Contains(host, ex) {
			return true
		}
	}
	return false
}

// firstTexts runs matchers in order and returns the cleaned texts of the
// first one that yields anything longer than noiseLen runes.
func firstTexts(doc string, matchers []Matcher, noiseLen int) []string {
	for _, m := range matchers {
		var texts []string
		for _, raw := range m.Match(doc) {
			if t, ok := cleanFragment(raw, noiseLen); ok {
				texts = append(texts, t)
			}
		}
		if len(texts) > 0 {
			return texts
		}
	}
	return nil
}

func cleanFragment(raw string, noiseLen int) (string, bool) {
	text := cleanText(raw)
	if utf8.RuneCountInString(text) <= noiseLen {
		return "", false
	}
	return text, true
}
