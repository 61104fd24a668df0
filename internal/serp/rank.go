package serp

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	exactScore    = 1.0
	containsScore = 0.8
	// Tokens this short or shorter are too generic to count as evidence.
	minTokenLen = 3
)

// Score rates how well title matches query on a 0..1 scale. Both strings are
// compared case-insensitively after trimming:
//
//   - equal strings score 1.0
//   - when one string contains the other, 0.8; an empty string is contained
//     in any title or query
//   - otherwise the number of equal token pairs longer than three runes,
//     divided by the larger token count
func Score(title, query string) float64 {
	a := strings.ToLower(strings.TrimSpace(title))
	b := strings.ToLower(strings.TrimSpace(query))

	if a == b {
		return exactScore
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containsScore
	}

	ta := strings.Fields(a)
	tb := strings.Fields(b)
	denom := max(len(ta), len(tb))
	if denom == 0 {
		return 0
	}

	matches := 0
	for _, x := range ta {
		if utf8.RuneCountInString(x) <= minTokenLen {
			continue
		}
		for _, y := range tb {
			if x == y {
				matches++
			}
		}
	}
	return float64(matches) / float64(denom)
}

// Rank scores every candidate against query and returns them ordered by
// descending score. Equal scores keep their extraction order. The input slice
// is not modified.
func Rank(set CandidateSet, query string) CandidateSet {
	ranked := make(CandidateSet, len(set))
	copy(ranked, set)
	for i := range ranked {
		ranked[i].Score = Score(ranked[i].Title, query)
	}
	slices.SortStableFunc(ranked, func(x, y Candidate) int {
		return cmp.Compare(y.Score, x.Score)
	})
	return ranked
}

// Best returns the top candidate of a ranked set.
func Best(set CandidateSet) (Candidate, bool) {
	if len(set) == 0 {
		return Candidate{}, false
	}
	return set[0], true
}
