package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-tutoring-be/pkg/knowledge"

	gocache "github.com/patrickmn/go-cache"
)

const (
	entryKeyPrefix = "entry:"
	queryKeyPrefix = "query:"

	// Query vectors are only useful while a user is likely to re-ask the
	// same thing; entry vectors live for the whole process.
	queryTTL = 5 * time.Minute
)

// Cache lazily computes and memoizes one vector per knowledge entry, keyed by
// entry id, for the lifetime of the process. Query vectors are kept on a short
// TTL. Two callers racing on the same uncached entry may both hit the
// provider; the duplicate call is tolerated, the cache stays consistent.
type Cache struct {
	provider Provider
	region   *gocache.Cache

	mu  sync.Mutex
	dim int
}

func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		region:   gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// EntryVector returns the cached vector for an entry, computing it on first use.
func (c *Cache) EntryVector(ctx context.Context, entry *knowledge.Entry) ([]float32, error) {
	key := entryKeyPrefix + entry.ID
	if x, found := c.region.Get(key); found {
		return x.([]float32), nil
	}

	vec, err := c.provider.Embed(ctx, entryEmbedText(entry), WithTaskType(TaskRetrievalDocument))
	if err != nil {
		return nil, err
	}
	if err := c.checkDimension(vec); err != nil {
		return nil, err
	}

	c.region.Set(key, vec, gocache.NoExpiration)
	return vec, nil
}

// QueryVector returns a vector for a query string, cached briefly.
func (c *Cache) QueryVector(ctx context.Context, query string) ([]float32, error) {
	key := queryKeyPrefix + query
	if x, found := c.region.Get(key); found {
		return x.([]float32), nil
	}

	vec, err := c.provider.Embed(ctx, query, WithTaskType(TaskRetrievalQuery))
	if err != nil {
		return nil, err
	}
	if err := c.checkDimension(vec); err != nil {
		return nil, err
	}

	c.region.Set(key, vec, queryTTL)
	return vec, nil
}

// checkDimension enforces the run-wide fixed-dimension invariant. The first
// vector seen pins the dimension.
func (c *Cache) checkDimension(vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dim == 0 {
		c.dim = len(vec)
		return nil
	}
	if len(vec) != c.dim {
		return fmt.Errorf("%w: got %d, run uses %d", ErrDimensionMismatch, len(vec), c.dim)
	}
	return nil
}

// entryEmbedText builds the text an entry is embedded under.
func entryEmbedText(e *knowledge.Entry) string {
	var b strings.Builder
	b.WriteString(e.Theorem)
	if e.Description != "" {
		b.WriteString("\n")
		b.WriteString(e.Description)
	}
	if e.Formula.Plain != "" {
		b.WriteString("\n")
		b.WriteString(e.Formula.Plain)
	}
	if len(e.Keywords) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(e.Keywords, " "))
	}
	return b.String()
}
