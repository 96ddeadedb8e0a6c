package rag

import (
	"sort"

	"github.com/martinvidela/cursobot-go/internal/textmatch"
)

const (
	// RRFConstant is the k in the RRF formula 1 / (k + rank). The standard
	// value of 60 keeps top ranks dominant without zeroing out the tail.
	RRFConstant = 60

	// DefaultTitleWeight is the share of the fused score contributed by
	// title matching; keyword search gets the remainder. Title overlap is
	// the stronger signal when users name a course, which is the common
	// case, so it carries the larger weight.
	DefaultTitleWeight = 0.6
)

// FusedResult is one course after rank fusion of the two signals.
type FusedResult struct {
	ID          string
	Title       string
	TitleScore  float64 // Jaccard title similarity (0 if only keyword hit)
	BM25Score   float64 // keyword score (0 if only title hit)
	RRFScore    float64
	TitleRank   int // 0 if absent from title results
	KeywordRank int // 0 if absent from keyword results
}

// FuseRRF merges title matches and keyword results by Reciprocal Rank
// Fusion: score(d) = Σ w_i / (RRFConstant + rank_i). titleWeight is
// clamped to [0, 1]; keyword weight is its complement.
func FuseRRF(titleMatches []textmatch.Match, keywordResults []Result, titleWeight float64, topN int) []FusedResult {
	if titleWeight < 0 {
		titleWeight = 0
	}
	if titleWeight > 1 {
		titleWeight = 1
	}
	keywordWeight := 1.0 - titleWeight

	merged := make(map[string]*FusedResult)
	order := make([]string, 0, len(titleMatches)+len(keywordResults))

	for i, m := range titleMatches {
		rank := i + 1
		merged[m.ID] = &FusedResult{
			ID:         m.ID,
			Title:      m.Title,
			TitleScore: m.Score,
			TitleRank:  rank,
			RRFScore:   titleWeight / float64(RRFConstant+rank),
		}
		order = append(order, m.ID)
	}

	for i, r := range keywordResults {
		rank := i + 1
		contribution := keywordWeight / float64(RRFConstant+rank)
		if existing, ok := merged[r.ID]; ok {
			existing.BM25Score = r.Score
			existing.KeywordRank = rank
			existing.RRFScore += contribution
			continue
		}
		merged[r.ID] = &FusedResult{
			ID:          r.ID,
			Title:       r.Title,
			BM25Score:   r.Score,
			KeywordRank: rank,
			RRFScore:    contribution,
		}
		order = append(order, r.ID)
	}

	// Iterate in insertion order so equal scores resolve deterministically.
	results := make([]FusedResult, 0, len(order))
	for _, id := range order {
		results = append(results, *merged[id])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RRFScore > results[j].RRFScore
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}
