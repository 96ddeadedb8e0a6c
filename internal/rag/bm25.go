// Package rag provides keyword retrieval over the course catalog. A BM25
// index over full course text backs the optional hybrid ranking that
// supplements the title matcher when a question uses vocabulary from course
// descriptions rather than course names.
package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/textmatch"
)

// Result is one scored course from a keyword search.
type Result struct {
	ID    string
	Title string
	Score float64 // BM25 score, higher is better
	Rank  int     // 1-indexed rank position
}

// CourseIndex is a BM25 index over the catalog's course text.
// Rebuild replaces the whole index; BM25 needs the full corpus for IDF, so
// there are no incremental updates.
type CourseIndex struct {
	okapi  *bm25.BM25Okapi
	ids    []string // document index -> course ID
	titles []string // document index -> course title
	logger *logger.Logger
	mu     sync.RWMutex
}

// NewCourseIndex creates an empty index. It stays disabled until the first
// successful Rebuild.
func NewCourseIndex(log *logger.Logger) *CourseIndex {
	return &CourseIndex{logger: log}
}

// Rebuild indexes the given catalog, replacing any previous contents.
func (idx *CourseIndex) Rebuild(courses []catalog.Course) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.okapi = nil
	idx.ids = nil
	idx.titles = nil

	var corpus []string
	for _, c := range courses {
		doc := courseDocument(c)
		if doc == "" {
			continue
		}
		corpus = append(corpus, doc)
		idx.ids = append(idx.ids, c.ID)
		idx.titles = append(idx.titles, c.Title)
	}

	if len(corpus) == 0 {
		return nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters.
	okapi, err := bm25.NewBM25Okapi(corpus, textmatch.Tokens, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to build course index: %w", err)
	}
	idx.okapi = okapi

	idx.logger.WithField("docs", len(corpus)).Info("Course keyword index rebuilt")
	return nil
}

// Search scores the query against every indexed course and returns the
// topN with positive scores, best first.
func (idx *CourseIndex) Search(query string, topN int) ([]Result, error) {
	if idx == nil {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.okapi == nil {
		return nil, nil
	}

	tokens := textmatch.Tokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("keyword scoring failed: %w", err)
	}

	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 || docID >= len(idx.ids) {
			continue
		}
		results = append(results, Result{
			ID:    idx.ids[docID],
			Title: idx.titles[docID],
			Score: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// IsEnabled reports whether the index holds any documents.
func (idx *CourseIndex) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.okapi != nil
}

// Count returns the number of indexed courses.
func (idx *CourseIndex) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// courseDocument flattens the searchable text of a course into one
// document. Titles and descriptions carry most of the signal; localities
// let "cursos en Centro" style queries hit too.
func courseDocument(c catalog.Course) string {
	parts := []string{
		c.Title,
		c.ShortDescription,
		c.FullDescription,
		c.Activities,
	}
	parts = append(parts, c.Localities...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
