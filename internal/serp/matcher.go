package serp

import (
	"html"
	"regexp"
	"strings"
)

// Matcher locates one kind of fragment (a result link, a heading, a snippet)
// in a whitespace-normalized results document.
type Matcher interface {
	// Name identifies the matcher in logs and tests.
	Name() string
	// Match returns the raw captured fragments in document order.
	Match(doc string) []string
}

// RegexpMatcher yields, for every match of its pattern, the first capture
// group that participated in the match. Alternations can therefore place the
// capture in different groups.
type RegexpMatcher struct {
	name string
	re   *regexp.Regexp
}

// NewRegexpMatcher compiles pattern, which must contain at least one capture
// group. It panics on an invalid pattern, so it is meant for package-level
// rule tables.
func NewRegexpMatcher(name, pattern string) *RegexpMatcher {
	re := regexp.MustCompile(pattern)
	if re.NumSubexp() < 1 {
		panic("serp: matcher " + name + " has no capture group")
	}
	return &RegexpMatcher{name: name, re: re}
}

func (m *RegexpMatcher) Name() string { return m.name }

func (m *RegexpMatcher) Match(doc string) []string {
	found := m.re.FindAllStringSubmatch(doc, -1)
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for _, sub := range found {
		for _, group := range sub[1:] {
			if group != "" {
				out = append(out, group)
				break
			}
		}
	}
	return out
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
)

// normalizeWhitespace collapses every whitespace run into a single space so
// patterns do not depend on how the source document wraps its lines.
func normalizeWhitespace(doc string) string {
	return whitespaceRe.ReplaceAllString(doc, " ")
}

// cleanText strips markup tags, decodes entities and trims the result.
func cleanText(fragment string) string {
	text := tagRe.ReplaceAllString(fragment, "")
	text = html.UnescapeString(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
