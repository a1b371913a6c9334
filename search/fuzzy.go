package search

import "github.com/poiesic/bookmatch/core"

// DefaultFuzzyThreshold is the maximum character error rate accepted as a
// fuzzy match. A policy constant with no derivation behind it; treat it as a
// starting point, not a tuned optimum.
const DefaultFuzzyThreshold = 0.3

// CharacterErrorRate computes the normalized edit distance between two
// strings in [0, 1]. Both strings are lower-cased and trimmed first. An
// empty string on either side yields the maximal rate of 1: an empty
// candidate is never a match.
func CharacterErrorRate(a, b string) float64 {
	ra := []rune(core.NormalizeTitle(a))
	rb := []rune(core.NormalizeTitle(b))

	if len(ra) == 0 || len(rb) == 0 {
		return 1.0
	}
	if string(ra) == string(rb) {
		return 0.0
	}

	// Keep rb as the shorter string so the rolling rows stay min(len)+1 wide.
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	// len(ra) is max(len(a), len(b)) after the swap above.
	return float64(prev[len(rb)]) / float64(len(ra))
}

// FuzzyMatch is the closest candidate found by FuzzySearch.
type FuzzyMatch struct {
	// Index is the candidate's position in the input slice.
	Index int
	// Candidate is the matched string as given.
	Candidate string
	// CER is the candidate's character error rate against the query.
	CER float64
}

// FuzzySearch scans all candidates and returns the single lowest-CER
// candidate, provided its error rate does not exceed threshold. The first
// candidate seen wins ties. Returns false when no candidate qualifies.
//
// The scan is O(n·L²) over the candidate list; fine for catalogs in the low
// thousands. Larger catalogs should pre-filter candidates (length buckets)
// before calling.
func FuzzySearch(query string, candidates []string, threshold float64) (FuzzyMatch, bool) {
	best := FuzzyMatch{Index: -1, CER: 1.0}

	for i, candidate := range candidates {
		cer := CharacterErrorRate(query, candidate)
		if best.Index == -1 || cer < best.CER {
			best = FuzzyMatch{Index: i, Candidate: candidate, CER: cer}
		}
	}

	if best.Index == -1 || best.CER > threshold {
		return FuzzyMatch{Index: -1, CER: 1.0}, false
	}
	return best, true
}
