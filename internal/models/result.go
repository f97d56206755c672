package models

// RankedResult is a single match produced by a query. RefIndex is the item's
// position in the sequence the index was built from.
type RankedResult struct {
	Item     Item    `json:"item"`
	RefIndex int     `json:"ref_index"`
	Score    float64 `json:"score"`
}

// DisplayState is a snapshot of a search session for rendering.
// Results is nil until a query has been issued; an empty non-nil slice means
// the query matched nothing. ResultCount mirrors len(Results) when present.
type DisplayState struct {
	Query       string         `json:"query"`
	Results     []RankedResult `json:"results"`
	ResultCount *int           `json:"result_count"`
	// Suggestion is a "did you mean" query offered when a search found nothing.
	Suggestion string `json:"suggestion,omitempty"`
}

// HasResults reports whether a result section should be rendered at all.
func (s DisplayState) HasResults() bool {
	return s.Results != nil
}

// SearchResponse is the response for a stateless search request.
type SearchResponse struct {
	Query       string         `json:"query"`
	Results     []RankedResult `json:"results"`
	Total       int            `json:"total"`
	QueryTime   int64          `json:"query_time_ms"`
	Suggestions []string       `json:"suggestions,omitempty"`
}
