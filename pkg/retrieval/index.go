package retrieval

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/knowledge"
)

// Result is one ranked retrieval hit. Produced fresh per query, never persisted.
type Result struct {
	Entry *knowledge.Entry
	Score float64
	Rank  int
}

// Config encapsulates retrieval parameters.
type Config struct {
	TopK int
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		TopK: 3,
	}
}

// Index ranks knowledge entries against a query. Entry vectors come from the
// embedding cache; when the embedding provider is unavailable the index falls
// back to lexical keyword overlap so a query always yields usable results.
type Index struct {
	store   *knowledge.Store
	vectors *embedding.Cache
	logger  *log.Logger
}

func NewIndex(store *knowledge.Store, vectors *embedding.Cache, logger *log.Logger) *Index {
	return &Index{
		store:   store,
		vectors: vectors,
		logger:  logger,
	}
}

// Retrieve returns at most k entries ranked by relevance to the query,
// optionally restricted to one category. Ties break by corpus insertion order,
// so repeated calls over the same corpus are deterministic.
func (idx *Index) Retrieve(ctx context.Context, query string, k int, category string) ([]Result, error) {
	if k <= 0 {
		k = DefaultConfig().TopK
	}

	candidates := idx.store.All()
	if category != "" {
		candidates = idx.store.ListByCategory(category)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores, err := idx.semanticScores(ctx, query, candidates)
	if err != nil {
		if !errors.Is(err, embedding.ErrUnavailable) {
			return nil, err
		}
		idx.logger.Printf("[WARN] embedding unavailable, lexical fallback: %v", err)
		scores = idx.lexicalScores(query, candidates)
	}

	results := make([]Result, len(candidates))
	for i, entry := range candidates {
		results[i] = Result{Entry: entry, Score: scores[i]}
	}

	// Stable sort keeps corpus insertion order on equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i
	}
	return results, nil
}

// semanticScores computes cosine similarity between the query vector and each
// candidate's cached vector. May populate the embedding cache for entries
// queried for the first time.
func (idx *Index) semanticScores(ctx context.Context, query string, candidates []*knowledge.Entry) ([]float64, error) {
	queryVec, err := idx.vectors.QueryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for i, entry := range candidates {
		entryVec, err := idx.vectors.EntryVector(ctx, entry)
		if err != nil {
			return nil, err
		}
		scores[i] = cosineSimilarity(queryVec, entryVec)
	}
	return scores, nil
}

// lexicalScores counts entry tokens (keywords plus theorem/description tokens)
// found in the query, normalized by candidate-set size. CJK tokens carry no
// word boundaries, so matching is substring containment on the lowercased query.
func (idx *Index) lexicalScores(query string, candidates []*knowledge.Entry) []float64 {
	queryLower := strings.ToLower(query)
	norm := float64(len(candidates))

	scores := make([]float64, len(candidates))
	for i, entry := range candidates {
		overlap := 0
		for token := range entryTokens(entry) {
			if utf8.RuneCountInString(token) < 2 {
				continue
			}
			if strings.Contains(queryLower, token) {
				overlap++
			}
		}
		scores[i] = float64(overlap) / norm
	}
	return scores
}

// entryTokens collects the lowercased lexical token set of an entry.
func entryTokens(e *knowledge.Entry) map[string]bool {
	tokens := make(map[string]bool)
	for _, kw := range e.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			tokens[kw] = true
		}
	}
	for _, field := range []string{e.Theorem, e.Topic, e.Description} {
		for _, t := range tokenize(field) {
			tokens[t] = true
		}
	}
	return tokens
}

// tokenize splits on anything that is not a letter or digit, lowercasing each
// token. CJK runs stay intact since they contain no separators.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// cosineSimilarity over unit vectors reduces to the dot product; result is in
// [-1, 1]. A length mismatch scores zero, the cache already rejects it upstream.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
