// Package cli provides output helpers for the instasearch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/internal/render"
	"github.com/hyperjump/instasearch/internal/session"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

const excerptLength = 200

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text, compact or json)", s)
}

// WriteSearchResults writes a stateless search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeCompact(w, response.Results)
		return nil
	default:
		total := response.Total
		msg := session.CountMessage(models.DisplayState{Query: response.Query, ResultCount: &total}, 0)
		fmt.Fprintf(w, "\n%s in %dms\n\n", msg, response.QueryTime)
		for i, r := range response.Results {
			writeCard(w, i+1, render.NewCard(r))
		}
		for _, s := range response.Suggestions {
			fmt.Fprintf(w, "Did you mean %q?\n", s)
		}
		return nil
	}
}

// SessionOutput is what `search --href` prints: the session's view of the
// page after it restored its query from href.
type SessionOutput struct {
	Href    string              `json:"href"`
	State   string              `json:"state"`
	Message string              `json:"message,omitempty"`
	Display models.DisplayState `json:"display"`
	Cards   []render.Card       `json:"cards"`
}

// NewSessionOutput captures s and the address bar it writes to.
func NewSessionOutput(s *session.Session, href string) SessionOutput {
	st := s.DisplayState()
	return SessionOutput{
		Href:    href,
		State:   s.State().String(),
		Message: session.CountMessage(st, s.MinQueryLength()),
		Display: st,
		Cards:   render.Cards(st.Results),
	}
}

// WriteSessionState writes a session snapshot to w in the given format.
func WriteSessionState(w io.Writer, out SessionOutput, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, out)
	case OutputCompact:
		writeCompact(w, out.Display.Results)
		return nil
	default:
		fmt.Fprintf(w, "\n%s\n", out.Href)
		if out.Message != "" {
			fmt.Fprintf(w, "%s\n", out.Message)
		}
		fmt.Fprintln(w)
		for i, c := range out.Cards {
			writeCard(w, i+1, c)
		}
		if s := out.Display.Suggestion; s != "" {
			fmt.Fprintf(w, "Did you mean %q?\n", s)
		}
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCompact(w io.Writer, results []models.RankedResult) {
	for _, r := range results {
		fmt.Fprintf(w, "%.3f\t%s\t%s\n", r.Score, r.Item.Slug, TruncateWords(r.Item.Title, 12))
	}
}

func writeCard(w io.Writer, rank int, c render.Card) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%d. %s | Score: %.4f\n", rank, c.Title, c.Score)
	fmt.Fprintf(w, "%s\n", c.Href)
	var meta []string
	if d := c.DateLabel(); d != "" {
		meta = append(meta, d)
	}
	if c.ReadingTime != "" {
		meta = append(meta, c.ReadingTime)
	}
	if len(c.Tags) > 0 {
		meta = append(meta, "#"+strings.Join(c.Tags, " #"))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "%s\n", strings.Join(meta, " · "))
	}
	if c.Description != "" {
		fmt.Fprintf(w, "\n%s\n", c.Excerpt(excerptLength))
	}
	fmt.Fprintln(w)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
