package rag

import (
	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/textmatch"
)

// Retriever ranks catalog candidates for a user message. Title matching is
// always on; the keyword index is consulted only when hybrid mode is
// enabled and the index holds documents. Retrieval failures degrade to
// title-only ranking, never to an error for the caller.
type Retriever struct {
	index  *CourseIndex
	hybrid bool
	logger *logger.Logger
}

// NewRetriever creates a retriever. index may be nil when hybrid mode is
// off.
func NewRetriever(index *CourseIndex, hybrid bool, log *logger.Logger) *Retriever {
	return &Retriever{
		index:  index,
		hybrid: hybrid,
		logger: log,
	}
}

// TopCandidates returns the k best catalog candidates for the query,
// best first.
func (r *Retriever) TopCandidates(query string, courses []catalog.Course, k int) []textmatch.Match {
	candidates := make([]textmatch.Candidate, len(courses))
	for i, c := range courses {
		candidates[i] = textmatch.Candidate{ID: c.ID, Title: c.Title}
	}
	titleMatches := textmatch.TopMatches(query, candidates, k)

	if !r.hybrid || !r.index.IsEnabled() {
		return titleMatches
	}

	keywordResults, err := r.index.Search(query, k)
	if err != nil {
		r.logger.WithError(err).Warn("Keyword search failed, using title matches only")
		return titleMatches
	}
	if len(keywordResults) == 0 {
		return titleMatches
	}

	fused := FuseRRF(titleMatches, keywordResults, DefaultTitleWeight, k)
	matches := make([]textmatch.Match, len(fused))
	for i, f := range fused {
		matches[i] = textmatch.Match{ID: f.ID, Title: f.Title, Score: f.RRFScore}
	}
	return matches
}
