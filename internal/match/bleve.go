package match

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/instasearch/internal/models"
	"go.uber.org/zap"
)

type bleveDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// BleveIndex implements Matcher on an in-memory Bleve index with fuzzy term
// queries. Bleve relevance is converted to the 0 (best) .. 1 (worst) scale
// relative to the best hit of each query.
type BleveIndex struct {
	index  bleve.Index
	items  []models.Item
	opts   Options
	logger *zap.Logger
}

// BleveOption configures a BleveIndex.
type BleveOption func(*BleveIndex)

// WithBleveLogger sets a logger for search failures.
func WithBleveLogger(l *zap.Logger) BleveOption {
	return func(b *BleveIndex) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBleveOptions applies matcher options (threshold and minimum query length are honoured).
func WithBleveOptions(opts ...Option) BleveOption {
	return func(b *BleveIndex) {
		for _, opt := range opts {
			opt(&b.opts)
		}
	}
}

// NewBleveIndex indexes items into a memory-only Bleve index.
func NewBleveIndex(items []models.Item, opts ...BleveOption) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer lowercases and tokenizes without stemming so fuzzy
	// terms are compared against whole words.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	im.AddDocumentMapping("item", docMapping)
	im.DefaultType = "item"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	b := &BleveIndex{
		index:  index,
		items:  append([]models.Item(nil), items...),
		opts:   DefaultOptions(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	batch := index.NewBatch()
	for i, it := range items {
		if !utf8.ValidString(it.Title) || !utf8.ValidString(it.Description) {
			_ = index.Close()
			return nil, fmt.Errorf("%w: item %d (%q): fields are not valid UTF-8", ErrMalformedItem, i, it.Slug)
		}
		if err := batch.Index(strconv.Itoa(i), bleveDoc{Title: it.Title, Description: it.Description}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index item %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index items: %w", err)
	}
	return b, nil
}

// Search runs a disjunction of match and fuzzy term queries over both fields.
func (b *BleveIndex) Search(query string) []models.RankedResult {
	results := []models.RankedResult{}
	if utf8.RuneCountInString(query) < b.opts.MinQueryLength || len(b.items) == 0 {
		return results
	}

	req := bleve.NewSearchRequest(b.buildQuery(query))
	req.Size = len(b.items)
	res, err := b.index.Search(req)
	if err != nil {
		b.logger.Warn("bleve search failed", zap.String("query", query), zap.Error(err))
		return results
	}
	if len(res.Hits) == 0 {
		return results
	}

	maxScore := res.Hits[0].Score
	for _, hit := range res.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos < 0 || pos >= len(b.items) {
			continue
		}
		score := 1.0
		if maxScore > 0 {
			score = 1 - hit.Score/maxScore
		}
		if score > b.opts.Threshold {
			continue
		}
		results = append(results, models.RankedResult{Item: b.items[pos], RefIndex: pos, Score: score})
	}
	sortResults(results)
	return results
}

func (b *BleveIndex) buildQuery(query string) blevequery.Query {
	queries := make([]blevequery.Query, 0, 8)
	for _, field := range []string{"title", "description"} {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		queries = append(queries, mq)
		for _, term := range tokenizeQuery(query) {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzzinessFor(term))
			fq.SetField(field)
			queries = append(queries, fq)
		}
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// fuzzinessFor scales the allowed edit distance with term length.
func fuzzinessFor(term string) int {
	if utf8.RuneCountInString(term) <= 4 {
		return 1
	}
	return 2
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Close releases the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
