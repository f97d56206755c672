// Package render turns ranked results into display cards for the hosts.
package render

import (
	"fmt"
	"net/url"
	"time"

	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/pkg/utils"
)

// DateLayout is how card dates are printed, e.g. "18 Oct, 2026".
const DateLayout = "2 Jan, 2006"

// Card is everything a host needs to draw one result.
type Card struct {
	Key         string    `json:"key"`
	Href        string    `json:"href"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PubDatetime time.Time `json:"pub_datetime,omitzero"`
	ModDatetime time.Time `json:"mod_datetime,omitzero"`
	ReadingTime string    `json:"reading_time,omitempty"`
	// Transition names the element for view transitions between list and post.
	Transition string  `json:"transition"`
	Score      float64 `json:"score"`
}

// PostHref is the link to an item's page.
func PostHref(slug string) string {
	return "/posts/" + url.PathEscape(slug) + "/"
}

// NewCard builds the card for r. Missing or unparsable metadata leaves the
// corresponding fields empty.
func NewCard(r models.RankedResult) Card {
	it := r.Item
	return Card{
		Key:         fmt.Sprintf("%d-%s", r.RefIndex, it.Slug),
		Href:        PostHref(it.Slug),
		Title:       it.Title,
		Description: it.Description,
		Image:       image(it),
		Tags:        it.MetaStrings("tags"),
		PubDatetime: metaTime(it, "pubDatetime"),
		ModDatetime: metaTime(it, "modDatetime"),
		ReadingTime: it.MetaString("readingTime"),
		Transition:  utils.Slugify(it.Title),
		Score:       r.Score,
	}
}

// Cards builds one card per result, preserving order. Absent results give nil.
func Cards(results []models.RankedResult) []Card {
	if results == nil {
		return nil
	}
	cards := make([]Card, len(results))
	for i, r := range results {
		cards[i] = NewCard(r)
	}
	return cards
}

// Updated reports whether the item was modified after publication.
func (c Card) Updated() bool {
	return !c.ModDatetime.IsZero() && c.ModDatetime.After(c.PubDatetime)
}

// DateLabel prints the most relevant date, prefixed with "Updated" when the
// modification date wins. Empty when no date is known.
func (c Card) DateLabel() string {
	if c.Updated() {
		return "Updated: " + c.ModDatetime.Format(DateLayout)
	}
	if c.PubDatetime.IsZero() {
		return ""
	}
	return c.PubDatetime.Format(DateLayout)
}

// Excerpt is the description shortened to maxLen runes.
func (c Card) Excerpt(maxLen int) string {
	return utils.Truncate(c.Description, maxLen)
}

// image accepts ogImage as a plain string or as a map carrying "src".
func image(it models.Item) string {
	switch v := it.Metadata["ogImage"].(type) {
	case string:
		return v
	case map[string]interface{}:
		if src, ok := v["src"].(string); ok {
			return src
		}
	}
	return ""
}

func metaTime(it models.Item, key string) time.Time {
	switch v := it.Metadata[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
