// Package models defines core data structures for items, search results, and display state.
package models

// Item is one entry of the static content index. Items are read-only: nothing in
// instasearch creates, mutates, or deletes them after they are loaded.
type Item struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Slug        string                 `json:"slug"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// MetaString returns the metadata value for key when it is a string.
func (it Item) MetaString(key string) string {
	if it.Metadata == nil {
		return ""
	}
	if s, ok := it.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// MetaStrings returns the metadata value for key as a string slice.
// Both []string and []interface{} (as produced by YAML/JSON decoding) are accepted.
func (it Item) MetaStrings(key string) []string {
	if it.Metadata == nil {
		return nil
	}
	switch v := it.Metadata[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
