package suggest

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hyperjump/instasearch/internal/models"
)

// TermDictionary is the vocabulary suggestions are drawn from.
type TermDictionary interface {
	// Terms returns all known terms, lowercased.
	Terms() []string
	// Frequency returns how many items contain term.
	Frequency(term string) int
	// Contains reports whether term is known.
	Contains(term string) bool
}

// Dictionary is an immutable TermDictionary built from item titles and descriptions.
type Dictionary struct {
	terms []string
	freq  map[string]int
}

// NewDictionary tokenizes the title and description of each item.
func NewDictionary(items []models.Item) *Dictionary {
	freq := make(map[string]int)
	for _, it := range items {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(it.Title + " " + it.Description) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			freq[tok]++
		}
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return &Dictionary{terms: terms, freq: freq}
}

// Terms implements TermDictionary.
func (d *Dictionary) Terms() []string { return d.terms }

// Frequency implements TermDictionary.
func (d *Dictionary) Frequency(term string) int { return d.freq[term] }

// Contains implements TermDictionary.
func (d *Dictionary) Contains(term string) bool {
	_, ok := d.freq[term]
	return ok
}

// Tokenize splits s into lowercase runs of letters and digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
