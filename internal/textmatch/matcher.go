package textmatch

import "sort"

// Similarity is the Jaccard index of the two texts' normalized token sets:
// |A ∩ B| / |A ∪ B|, in [0, 1]. Symmetric. Zero when either side has no
// tokens after normalization.
func Similarity(a, b string) float64 {
	setA := TokenSet(a)
	setB := TokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Match is one scored candidate.
type Match struct {
	ID    string
	Title string
	Score float64
}

// Candidate is anything with an identifier and a matchable title.
type Candidate struct {
	ID    string
	Title string
}

// TopMatches scores the query against every candidate and returns the k
// highest, best first. Ties keep candidate order, so the ranking is stable
// across runs. Zero scores are not filtered: with fewer than k overlapping
// titles the hint is padded with leading catalog entries, and downstream
// consumers see exactly k candidates whenever k candidates exist.
func TopMatches(query string, candidates []Candidate, k int) []Match {
	if k <= 0 {
		return nil
	}

	scored := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Match{ID: c.ID, Title: c.Title, Score: Similarity(query, c.Title)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
