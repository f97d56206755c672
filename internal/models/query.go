package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a stateless search has nothing to look for.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery is a stateless search request with paging.
type SearchQuery struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Validate rejects blank queries and normalizes paging: a non-positive limit
// becomes defaultLimit, limits above maxLimit are capped and negative offsets
// become zero.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}

// Page returns the window of results selected by Offset and Limit.
func (q *SearchQuery) Page(results []RankedResult) []RankedResult {
	start := min(q.Offset, len(results))
	end := len(results)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(results))
	}
	return results[start:end]
}
