package serp

// Candidate represents a single search result discovered in a results page.
// URL, Title and Snippet are filled by an extractor, Score by Rank.
type Candidate struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"description"`
	Score   float64 `json:"score"`
}

// CandidateSet is an ordered list of candidates. No two entries share a
// normalized URL.
type CandidateSet []Candidate

// URLs returns the candidate URLs in order.
func (s CandidateSet) URLs() []string {
	urls := make([]string, len(s))
	for i, c := range s {
		urls[i] = c.URL
	}
	return urls
}

// CandidateExtractor abstracts the strategy that turns a raw results document
// into candidates. Implementations never fail: a document without results
// yields an empty set.
type CandidateExtractor interface {
	Extract(document string, limit int) CandidateSet
}

// DefaultCap is the number of candidates kept when the caller passes a
// non-positive cap.
const DefaultCap = 10

// ExtractAndRank runs the default flat extractor over document and ranks the
// result against query. The first element, if any, is the best match.
func ExtractAndRank(document, query string, limit int) CandidateSet {
	return Rank(NewExtractor().Extract(document, limit), query)
}
