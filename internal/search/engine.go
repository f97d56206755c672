// Package search holds the live item index and hands out search sessions bound to it.
package search

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hyperjump/instasearch/internal/config"
	"github.com/hyperjump/instasearch/internal/location"
	"github.com/hyperjump/instasearch/internal/match"
	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/internal/session"
	"github.com/hyperjump/instasearch/internal/suggest"
	"go.uber.org/zap"
)

// snapshot is one immutable generation of the index.
type snapshot struct {
	matcher  match.Matcher
	items    []models.Item
	bySlug   map[string]int
	checker  *suggest.SpellChecker
	closer   io.Closer
	loadedAt time.Time

	// refs counts sessions and in-flight searches using this generation. A
	// retired generation is closed when refs drops to zero.
	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool
}

func (s *snapshot) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.refs++
	return true
}

func (s *snapshot) release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs--
	if s.retired && s.refs <= 0 {
		return s.closeLocked()
	}
	return nil
}

func (s *snapshot) retire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retired = true
	if s.refs <= 0 {
		return s.closeLocked()
	}
	return nil
}

func (s *snapshot) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *snapshot) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *snapshot) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Engine serves searches from the current index generation. Reload swaps in a
// new generation atomically; sessions created earlier keep the generation
// they were built with.
type Engine struct {
	config *config.SearchConfig
	logger *zap.Logger

	current atomic.Pointer[snapshot]
	// reloadMu serializes Reload so generations are built one at a time.
	reloadMu sync.Mutex

	boundMu sync.Mutex
	bound   map[*session.Session]*snapshot
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine with an empty index. Call Reload to load items.
func NewEngine(cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	if cfg == nil {
		cfg = &config.SearchConfig{}
	}
	e := &Engine{
		config: cfg,
		logger: zap.NewNop(),
		bound:  make(map[*session.Session]*snapshot),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.current.Store(&snapshot{
		matcher:  emptyMatcher{},
		items:    []models.Item{},
		bySlug:   map[string]int{},
		loadedAt: time.Now(),
	})
	return e
}

// Reload builds a new index generation from items and makes it current.
// On error the current generation stays in place.
func (e *Engine) Reload(items []models.Item) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	snap, err := e.build(items)
	if err != nil {
		return err
	}
	prev := e.current.Swap(snap)
	// Sessions may still search the previous generation; it closes after the last one is released.
	if err := prev.retire(); err != nil {
		e.logger.Warn("failed to close previous index", zap.Error(err))
	}
	e.logger.Info("index reloaded",
		zap.Int("items", len(snap.items)),
		zap.String("strategy", e.Strategy()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func (e *Engine) build(items []models.Item) (*snapshot, error) {
	opts := []match.Option{
		match.WithThreshold(e.config.ThresholdOrDefault()),
		match.WithMinQueryLength(e.minQueryLength()),
	}
	if e.config.Distance > 0 {
		opts = append(opts, match.WithDistance(e.config.Distance))
	}

	snap := &snapshot{
		items:    append([]models.Item(nil), items...),
		bySlug:   make(map[string]int, len(items)),
		loadedAt: time.Now(),
	}
	for i, it := range items {
		snap.bySlug[it.Slug] = i
	}

	switch e.Strategy() {
	case config.StrategyBleve:
		b, err := match.NewBleveIndex(items, match.WithBleveOptions(opts...), match.WithBleveLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to build bleve index: %w", err)
		}
		snap.matcher, snap.closer = b, b
	default:
		idx, err := match.Build(items, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build index: %w", err)
		}
		snap.matcher = idx
	}

	if e.config.CacheSize > 0 {
		cached, err := match.NewCached(snap.matcher, e.config.CacheSize)
		if err != nil {
			return nil, err
		}
		snap.matcher = cached
	}
	if e.config.SuggestionsOrDefault() {
		snap.checker = suggest.NewSpellChecker(suggest.NewDictionary(items))
	}
	return snap, nil
}

// Strategy returns the configured matcher strategy.
func (e *Engine) Strategy() string {
	if e.config.Strategy == "" {
		return config.StrategyBitap
	}
	return e.config.Strategy
}

func (e *Engine) minQueryLength() int {
	if e.config.MinQueryLength > 0 {
		return e.config.MinQueryLength
	}
	return session.DefaultMinQueryLength
}

// Matcher returns the current generation's matcher.
func (e *Engine) Matcher() match.Matcher {
	return e.current.Load().matcher
}

// Items returns a copy of the current items in index order.
func (e *Engine) Items() []models.Item {
	return append([]models.Item(nil), e.current.Load().items...)
}

// Len returns the number of items in the current generation.
func (e *Engine) Len() int {
	return len(e.current.Load().items)
}

// LoadedAt returns when the current generation was built.
func (e *Engine) LoadedAt() time.Time {
	return e.current.Load().loadedAt
}

// Item looks up an item of the current generation by slug.
func (e *Engine) Item(slug string) (models.Item, bool) {
	snap := e.current.Load()
	i, ok := snap.bySlug[slug]
	if !ok {
		return models.Item{}, false
	}
	return snap.items[i], true
}

// Suggest returns a corrected query for query, or "" when suggestions are off
// or nothing better exists.
func (e *Engine) Suggest(query string) string {
	snap := e.current.Load()
	if snap.checker == nil {
		return ""
	}
	return snap.checker.SuggestQuery(query)
}

// Search runs a stateless, paged search against the current generation.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.config.DefaultLimit, e.config.MaxLimit); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := e.acquire()
	defer e.releaseSnapshot(snap)
	all := snap.matcher.Search(query.Query)
	response := &models.SearchResponse{
		Query:   query.Query,
		Results: query.Page(all),
		Total:   len(all),
	}
	if len(all) == 0 && snap.checker != nil && utf8.RuneCountInString(query.Query) >= e.minQueryLength() {
		if s := snap.checker.SuggestQuery(query.Query); s != "" {
			response.Suggestions = []string{s}
		}
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	e.logger.Debug("search",
		zap.String("query", query.Query),
		zap.Int("total", response.Total),
		zap.Int64("query_time_ms", response.QueryTime),
	)
	return response, nil
}

// NewSession creates a session bound to the current generation. It restores
// its query from bar; the engine's query parameter, minimum query length,
// suggester and logger are applied before opts.
func (e *Engine) NewSession(bar location.AddressBar, opts ...session.Option) *session.Session {
	snap := e.acquire()
	base := []session.Option{
		session.WithLogger(e.logger),
		session.WithParam(e.config.QueryParam),
		session.WithMinQueryLength(e.minQueryLength()),
	}
	if snap.checker != nil {
		base = append(base, session.WithSuggester(snap.checker))
	}
	s := session.New(snap.matcher, bar, append(base, opts...)...)
	e.boundMu.Lock()
	e.bound[s] = snap
	e.boundMu.Unlock()
	return s
}

// Release tells the engine s is no longer used. Once every session of a
// replaced generation is released, that generation's index is closed.
func (e *Engine) Release(s *session.Session) {
	e.boundMu.Lock()
	snap, ok := e.bound[s]
	delete(e.bound, s)
	e.boundMu.Unlock()
	if ok {
		e.releaseSnapshot(snap)
	}
}

// Sessions returns the number of sessions not yet released.
func (e *Engine) Sessions() int {
	e.boundMu.Lock()
	defer e.boundMu.Unlock()
	return len(e.bound)
}

// acquire pins the current generation. A generation is retired only after
// its successor is stored, so a failed acquire means a newer one is current,
// unless the engine itself was closed.
func (e *Engine) acquire() *snapshot {
	for {
		snap := e.current.Load()
		if snap.acquire() || e.current.Load() == snap {
			return snap
		}
	}
}

func (e *Engine) releaseSnapshot(snap *snapshot) {
	if err := snap.release(); err != nil {
		e.logger.Warn("failed to close previous index", zap.Error(err))
	}
}

// Close releases the current generation and any replaced generation still
// held by sessions.
func (e *Engine) Close() error {
	e.boundMu.Lock()
	snaps := map[*snapshot]struct{}{e.current.Load(): {}}
	for _, snap := range e.bound {
		snaps[snap] = struct{}{}
	}
	e.boundMu.Unlock()

	var firstErr error
	for snap := range snaps {
		if err := snap.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type emptyMatcher struct{}

func (emptyMatcher) Search(string) []models.RankedResult { return []models.RankedResult{} }
