// Package session keeps a search query, its results, and the page address bar
// consistent on every input change.
package session

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/hyperjump/instasearch/internal/location"
	"github.com/hyperjump/instasearch/internal/match"
	"github.com/hyperjump/instasearch/internal/models"
	"go.uber.org/zap"
)

// DefaultParam is the address-bar query parameter a session owns.
const DefaultParam = "q"

// DefaultMinQueryLength is the shortest query for which a result count is shown.
const DefaultMinQueryLength = 2

// State is the lifecycle state of a session.
type State int

const (
	// StateIdle means no query: results are absent.
	StateIdle State = iota
	// StateActive means a non-empty query with results present (possibly empty).
	StateActive
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Input is the host's text input, used once to restore the cursor after a
// query was restored from the address bar.
type Input interface {
	Focus()
	// SetCursor places the caret (and collapses any selection) at a rune offset.
	SetCursor(pos int)
}

// Suggester proposes a corrected query for one that matched nothing.
type Suggester interface {
	SuggestQuery(query string) string
}

// Session owns the current query and results. All methods are safe for
// concurrent use; each change is applied atomically.
type Session struct {
	matcher        match.Matcher
	bar            location.AddressBar
	param          string
	minQueryLength int
	suggester      Suggester
	logger         *zap.Logger

	mu         sync.Mutex
	query      string
	results    []models.RankedResult
	suggestion string
	// pendingCursor is the rune offset to restore once an input is attached; -1 when none.
	pendingCursor int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a logger for debug output and address-bar failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParam sets the query parameter name. Empty names are ignored.
func WithParam(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.param = name
		}
	}
}

// WithMinQueryLength sets the shortest query that gets a result count and suggestions.
func WithMinQueryLength(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.minQueryLength = n
		}
	}
}

// WithSuggester enables "did you mean" suggestions for queries without results.
func WithSuggester(sg Suggester) Option {
	return func(s *Session) { s.suggester = sg }
}

// New creates a session over m. If bar carries a non-empty query parameter the
// session restores it as if it had been typed, and remembers to move the
// cursor to its end when an input is attached. A nil bar or a failing one
// leaves the session working from memory only.
func New(m match.Matcher, bar location.AddressBar, opts ...Option) *Session {
	if bar == nil {
		bar = location.Unavailable{}
	}
	s := &Session{
		matcher:        m,
		bar:            bar,
		param:          DefaultParam,
		minQueryLength: DefaultMinQueryLength,
		logger:         zap.NewNop(),
		pendingCursor:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Session) restore() {
	q, ok, err := s.bar.ReadQueryParam(s.param)
	if err != nil {
		s.logger.Debug("address bar not readable; starting idle", zap.Error(err))
		return
	}
	if !ok || q == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(q)
	s.pendingCursor = utf8.RuneCountInString(q)
	s.logger.Debug("query restored from address bar", zap.String("query", q), zap.Int("results", len(s.results)))
}

// OnQueryChange applies new input text: results are recomputed and the
// address bar rewritten before it returns. It never fails; address-bar errors
// are logged and otherwise ignored.
func (s *Session) OnQueryChange(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(text)
}

// apply must be called with mu held.
func (s *Session) apply(text string) {
	s.query = text
	s.suggestion = ""
	if text == "" {
		s.results = nil
		if err := s.bar.RemoveQueryParam(s.param); err != nil {
			s.logger.Debug("address bar update skipped", zap.String("param", s.param), zap.Error(err))
		}
		s.logger.Debug("query cleared")
		return
	}

	results := s.matcher.Search(text)
	if results == nil {
		results = []models.RankedResult{}
	}
	s.results = results
	if s.suggester != nil && len(results) == 0 && utf8.RuneCountInString(text) >= s.minQueryLength {
		s.suggestion = s.suggester.SuggestQuery(text)
	}
	if err := s.bar.ReplaceQueryParam(s.param, text); err != nil {
		s.logger.Debug("address bar update skipped", zap.String("param", s.param), zap.Error(err))
	}
	s.logger.Debug("query changed", zap.String("query", text), zap.Int("results", len(results)))
}

// DisplayState returns a snapshot of the current query and results.
func (s *Session) DisplayState() models.DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.DisplayState{Query: s.query, Suggestion: s.suggestion}
	if s.results != nil {
		st.Results = append([]models.RankedResult{}, s.results...)
		n := len(s.results)
		st.ResultCount = &n
	}
	return st
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		return StateIdle
	}
	return StateActive
}

// AttachInput hands the session the host's mounted input. If a query was
// restored at construction and not yet acknowledged, the input is focused and
// its cursor placed after the restored text. This happens at most once.
func (s *Session) AttachInput(in Input) {
	s.mu.Lock()
	pos := s.pendingCursor
	s.pendingCursor = -1
	s.mu.Unlock()
	if pos < 0 || in == nil {
		return
	}
	in.Focus()
	in.SetCursor(pos)
}

// Param returns the query parameter name the session owns.
func (s *Session) Param() string { return s.param }

// MinQueryLength returns the shortest query that gets a result count.
func (s *Session) MinQueryLength() int { return s.minQueryLength }

// CountMessage is the "Found N result(s) for 'q'" line, shown only for
// queries of at least minQueryLength runes.
func CountMessage(st models.DisplayState, minQueryLength int) string {
	if utf8.RuneCountInString(st.Query) < minQueryLength || st.ResultCount == nil {
		return ""
	}
	n := *st.ResultCount
	noun := "results"
	if n == 1 {
		noun = "result"
	}
	return fmt.Sprintf("Found %d %s for '%s'", n, noun, st.Query)
}
