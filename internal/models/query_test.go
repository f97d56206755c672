package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name       string
		query      *SearchQuery
		wantErr    error
		wantLimit  int
		wantOffset int
	}{
		{"empty query", &SearchQuery{Query: ""}, ErrEmptyQuery, 0, 0},
		{"blank query", &SearchQuery{Query: "   "}, ErrEmptyQuery, 0, 0},
		{"sets default limit", &SearchQuery{Query: "x"}, nil, 10, 0},
		{"caps limit", &SearchQuery{Query: "x", Limit: 200}, nil, 100, 0},
		{"keeps limit", &SearchQuery{Query: "x", Limit: 5, Offset: 3}, nil, 5, 3},
		{"clamps offset", &SearchQuery{Query: "x", Offset: -4}, nil, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(10, 100)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.query.Limit != tt.wantLimit || tt.query.Offset != tt.wantOffset {
				t.Errorf("limit/offset = %d/%d, want %d/%d", tt.query.Limit, tt.query.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestSearchQuery_Page(t *testing.T) {
	results := make([]RankedResult, 5)
	for i := range results {
		results[i].RefIndex = i
	}
	tests := []struct {
		name      string
		query     SearchQuery
		wantFirst int
		wantLen   int
	}{
		{"first page", SearchQuery{Limit: 2}, 0, 2},
		{"second page", SearchQuery{Limit: 2, Offset: 2}, 2, 2},
		{"short last page", SearchQuery{Limit: 2, Offset: 4}, 4, 1},
		{"offset past end", SearchQuery{Limit: 2, Offset: 9}, -1, 0},
		{"no limit", SearchQuery{Offset: 1}, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.query.Page(results)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].RefIndex != tt.wantFirst {
				t.Errorf("first = %d, want %d", got[0].RefIndex, tt.wantFirst)
			}
		})
	}
}
