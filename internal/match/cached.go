package match

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperjump/instasearch/internal/models"
)

// Cached memoizes the results of an immutable Matcher per query string.
// Because the wrapped matcher never changes, a cached result always equals a
// fresh search.
type Cached struct {
	inner Matcher
	cache *lru.Cache[string, []models.RankedResult]
}

// NewCached wraps m with an LRU cache holding up to size queries.
func NewCached(m Matcher, size int) (*Cached, error) {
	cache, err := lru.New[string, []models.RankedResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &Cached{inner: m, cache: cache}, nil
}

// Search returns the cached results for query, searching the wrapped matcher on a miss.
func (c *Cached) Search(query string) []models.RankedResult {
	if results, ok := c.cache.Get(query); ok {
		return cloneResults(results)
	}
	results := c.inner.Search(query)
	c.cache.Add(query, cloneResults(results))
	return results
}

// Len returns the number of cached queries.
func (c *Cached) Len() int { return c.cache.Len() }

func cloneResults(in []models.RankedResult) []models.RankedResult {
	out := make([]models.RankedResult, len(in))
	copy(out, in)
	return out
}
