// Package match provides approximate matching of free-text queries against a
// static item list.
package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/instasearch/internal/models"
)

// ErrMalformedItem is returned by Build when an item's text fields are not valid text.
var ErrMalformedItem = errors.New("malformed item")

// Matcher is the search capability sessions depend on. Implementations must
// return results ordered best first, ties broken by ascending RefIndex, and an
// empty result for queries shorter than two runes.
type Matcher interface {
	Search(query string) []models.RankedResult
}

// Options tune the matcher. The zero value is not useful; start from DefaultOptions.
type Options struct {
	// Threshold is the worst score still reported (0 = perfect, 1 = no match).
	Threshold float64
	// Location is the rune offset in a field where a match is expected.
	Location int
	// Distance is how many runes away from Location a match may drift before
	// its score reaches 1. Zero requires the match to sit exactly at Location.
	Distance int
	// IgnoreLocation scores matches by error ratio only.
	IgnoreLocation bool
	// MinMatchCharLength is the shortest run of matched runes a field needs.
	MinMatchCharLength int
	// MinQueryLength is the shortest query (in runes) that is searched at all.
	MinQueryLength int
}

// DefaultOptions returns the options the search widget ships with.
func DefaultOptions() Options {
	return Options{
		Threshold:          0.5,
		Location:           0,
		Distance:           100,
		MinMatchCharLength: 2,
		MinQueryLength:     2,
	}
}

// Option is a functional option for Build.
type Option func(*Options)

// WithThreshold sets the match threshold. Values outside [0, 1] are ignored;
// 0 accepts only exact matches.
func WithThreshold(t float64) Option {
	return func(o *Options) {
		if t >= 0 && t <= 1 {
			o.Threshold = t
		}
	}
}

// WithDistance sets how far from the expected location a match may start.
func WithDistance(d int) Option {
	return func(o *Options) {
		if d >= 0 {
			o.Distance = d
		}
	}
}

// WithLocation sets the rune offset where matches are expected.
func WithLocation(l int) Option {
	return func(o *Options) {
		if l >= 0 {
			o.Location = l
		}
	}
}

// WithIgnoreLocation disables the proximity part of the score.
func WithIgnoreLocation(ignore bool) Option {
	return func(o *Options) { o.IgnoreLocation = ignore }
}

// WithMinMatchCharLength sets the shortest run of matched runes a field needs.
func WithMinMatchCharLength(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MinMatchCharLength = n
		}
	}
}

// WithMinQueryLength sets the shortest searched query. Values below 1 are ignored.
func WithMinQueryLength(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MinQueryLength = n
		}
	}
}

type document struct {
	fields [][]rune
}

// Index is an immutable, pre-folded view of an item list. It is safe for
// concurrent use by multiple goroutines.
type Index struct {
	items []models.Item
	docs  []document
	opts  Options
}

// Build indexes items in order. An empty list is valid.
func Build(items []models.Item, opts ...Option) (*Index, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	idx := &Index{
		items: append([]models.Item(nil), items...),
		docs:  make([]document, len(items)),
		opts:  o,
	}
	for i, it := range items {
		if !utf8.ValidString(it.Title) {
			return nil, fmt.Errorf("%w: item %d (%q): title is not valid UTF-8", ErrMalformedItem, i, it.Slug)
		}
		if !utf8.ValidString(it.Description) {
			return nil, fmt.Errorf("%w: item %d (%q): description is not valid UTF-8", ErrMalformedItem, i, it.Slug)
		}
		var fields [][]rune
		for _, f := range []string{it.Title, it.Description} {
			// Blank fields never match.
			if strings.TrimSpace(f) == "" {
				continue
			}
			fields = append(fields, foldRunes(f))
		}
		idx.docs[i] = document{fields: fields}
	}
	return idx, nil
}

// Len returns the number of indexed items.
func (idx *Index) Len() int { return len(idx.items) }

// Items returns a copy of the indexed items in build order.
func (idx *Index) Items() []models.Item {
	return append([]models.Item(nil), idx.items...)
}

// Options returns the options the index was built with.
func (idx *Index) Options() Options { return idx.opts }

// Search scores every item against query and returns the matches best first.
// Queries shorter than MinQueryLength runes return an empty slice.
func (idx *Index) Search(query string) []models.RankedResult {
	results := []models.RankedResult{}
	if utf8.RuneCountInString(query) < idx.opts.MinQueryLength {
		return results
	}
	searcher := newBitapSearcher(query, &idx.opts)
	for i, doc := range idx.docs {
		best := fieldMatch{score: 1}
		for _, field := range doc.fields {
			m := searcher.searchIn(field)
			if m.isMatch && (!best.isMatch || m.score < best.score) {
				best = m
			}
		}
		if !best.isMatch || best.score > idx.opts.Threshold {
			continue
		}
		results = append(results, models.RankedResult{
			Item:     idx.items[i],
			RefIndex: i,
			Score:    best.score,
		})
	}
	sortResults(results)
	return results
}

// sortResults orders by ascending score, then ascending RefIndex.
func sortResults(results []models.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].RefIndex < results[j].RefIndex
	})
}
