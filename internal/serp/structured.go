package serp

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultContainerSelector matches the per-result blocks of the desktop and
// basic-HTML Google layouts.
const DefaultContainerSelector = "div.g, div.MjjYud, div.Gx5Zad"

// StructuredExtractor parses the document into a tree and reads link, title
// and snippet from the same result container, so fields cannot drift apart
// the way they can with flat scanning. When no container is found it hands
// the document to Fallback.
type StructuredExtractor struct {
	ContainerSelector string
	TitleSelector     string
	SnippetSelector   string
	Exclusions        []string
	Fallback          CandidateExtractor
}

// NewStructuredExtractor returns a StructuredExtractor for Google results
// that falls back to the flat Extractor.
func NewStructuredExtractor() *StructuredExtractor {
	return &StructuredExtractor{
		ContainerSelector: DefaultContainerSelector,
		TitleSelector:     "h3, div.vvjwJb",
		SnippetSelector:   "div.VwiC3b, div.s3v9rd, span.aCOpRe",
		Exclusions:        DefaultExclusions,
		Fallback:          NewExtractor(),
	}
}

func (e *StructuredExtractor) Extract(document string, limit int) CandidateSet {
	if limit <= 0 {
		limit = DefaultCap
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return e.fallback(document, limit)
	}

	containers := doc.Find(e.ContainerSelector)
	if containers.Length() == 0 {
		return e.fallback(document, limit)
	}

	seen := make(map[string]struct{})
	set := make(CandidateSet, 0, limit)
	containers.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		// Nested containers repeat their parent's link.
		if block.ParentsFiltered(e.ContainerSelector).Length() > 0 {
			return true
		}
		link, key, ok := e.resultLink(block)
		if !ok {
			return true
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		c := Candidate{URL: link, Title: link}
		if t, ok := cleanFragment(block.Find(e.TitleSelector).First().Text(), titleNoiseLen); ok {
			c.Title = t
		}
		if s, ok := cleanFragment(block.Find(e.SnippetSelector).First().Text(), snippetNoiseLen); ok {
			c.Snippet = s
		}
		set = append(set, c)
		return len(set) < limit
	})
	return set
}

func (e *StructuredExtractor) fallback(document string, limit int) CandidateSet {
	if e.Fallback == nil {
		return CandidateSet{}
	}
	return e.Fallback.Extract(document, limit)
}

// resultLink returns the first acceptable link inside block, unwrapping
// Google redirect hrefs.
func (e *StructuredExtractor) resultLink(block *goquery.Selection) (link, key string, ok bool) {
	block.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if target, ok := unwrapRedirect(href); ok {
			href = target
		}
		// goquery hands back attribute values already entity-decoded, so
		// escape them again for acceptURL's html unescaping to be a no-op.
		link, key, ok = acceptURL(strings.ReplaceAll(href, "&", "&amp;"), e.Exclusions)
		return !ok
	})
	return link, key, ok
}

// unwrapRedirect extracts the target of a "/url?q=..." or "/url?url=..." link.
// The target is returned still percent-encoded.
func unwrapRedirect(href string) (string, bool) {
	if !strings.HasPrefix(href, "/url?") {
		return "", false
	}
	rawQuery := strings.TrimPrefix(href, "/url?")
	for _, part := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(part, "=")
		if (key == "q" || key == "url") && value != "" {
			return value, true
		}
	}
	return "", false
}

var _ CandidateExtractor = (*Extractor)(nil)
var _ CandidateExtractor = (*StructuredExtractor)(nil)

// ParseMode maps an extract mode name to its extractor. Unknown names yield
// nil and false.
func ParseMode(mode string) (CandidateExtractor, bool) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "flat":
		return NewExtractor(), true
	case "structured":
		return NewStructuredExtractor(), true
	default:
		return nil, false
	}
}
