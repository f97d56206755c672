package suggest

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Suggestion is a candidate correction for one query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
	Score     float64
}

// CheckResult is the outcome of checking a whole query.
type CheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion
	MisspelledTerms []string
	HasCorrections  bool
}

// SpellChecker proposes dictionary terms close to unknown query terms.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
}

// Option configures a SpellChecker.
type Option func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) Option {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores terms found in fewer than f items.
func WithMinFrequency(f int) Option {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions caps suggestions returned per term.
func WithMaxSuggestions(n int) Option {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a SpellChecker over dict.
func NewSpellChecker(dict TermDictionary, opts ...Option) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check looks up every query term and replaces unknown ones with their best suggestion.
func (s *SpellChecker) Check(query string) *CheckResult {
	result := &CheckResult{OriginalQuery: query}
	terms := Tokenize(query)
	corrected := make([]string, 0, len(terms))
	for _, term := range terms {
		if s.dictionary.Contains(term) {
			corrected = append(corrected, term)
			continue
		}
		suggestions := s.Suggest(term)
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}
	result.CorrectedQuery = strings.Join(corrected, " ")
	return result
}

// Suggest returns dictionary terms within the maximum edit distance of term,
// best first. Closer terms win; frequency breaks ties between equal distances.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	term = strings.ToLower(term)
	termLen := utf8.RuneCountInString(term)
	var suggestions []Suggestion
	for _, candidate := range s.dictionary.Terms() {
		if candidate == term {
			continue
		}
		// Length alone can rule a candidate out.
		diff := utf8.RuneCountInString(candidate) - termLen
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		distance := DamerauLevenshtein(term, candidate)
		if distance > s.maxDistance {
			continue
		}
		freq := s.dictionary.Frequency(candidate)
		if freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Term:      candidate,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Distance != suggestions[j].Distance {
			return suggestions[i].Distance < suggestions[j].Distance
		}
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// SuggestQuery returns a corrected query, or "" when no term could be improved.
func (s *SpellChecker) SuggestQuery(query string) string {
	result := s.Check(query)
	if !result.HasCorrections || result.CorrectedQuery == strings.ToLower(strings.TrimSpace(query)) {
		return ""
	}
	return result.CorrectedQuery
}
