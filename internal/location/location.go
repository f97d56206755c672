// Package location models the host page's address bar as an injected
// capability, so search sessions can read and rewrite the query string without
// touching global state.
package location

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// ErrUnavailable is returned when the host exposes no navigable URL.
var ErrUnavailable = errors.New("address bar unavailable")

// AddressBar reads and rewrites query parameters of the current page URL.
// Writes never navigate and never push a history entry.
type AddressBar interface {
	// ReadQueryParam returns the decoded value of name and whether it is present.
	ReadQueryParam(name string) (string, bool, error)
	// ReplaceQueryParam sets name to value through a history replacement.
	ReplaceQueryParam(name, value string) error
	// RemoveQueryParam drops name from the URL through a history replacement.
	RemoveQueryParam(name string) error
}

// URL is an in-memory address bar. Only replacements are recorded; there is
// no history stack to push to.
type URL struct {
	mu           sync.RWMutex
	u            *url.URL
	replacements int
}

// Parse returns an address bar positioned at rawURL (absolute or a relative
// reference such as "/search?q=cat").
func Parse(rawURL string) (*URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address: %w", err)
	}
	return &URL{u: u}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(rawURL string) *URL {
	l, err := Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return l
}

// FromURL returns an address bar positioned at a copy of u.
func FromURL(u *url.URL) *URL {
	cp := *u
	return &URL{u: &cp}
}

// ReadQueryParam implements AddressBar.
func (l *URL) ReadQueryParam(name string) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	values, err := url.ParseQuery(l.u.RawQuery)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse query string: %w", err)
	}
	if _, ok := values[name]; !ok {
		return "", false, nil
	}
	return values.Get(name), true, nil
}

// ReplaceQueryParam implements AddressBar. Other parameters are preserved.
func (l *URL) ReplaceQueryParam(name, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	values, err := url.ParseQuery(l.u.RawQuery)
	if err != nil {
		return fmt.Errorf("failed to parse query string: %w", err)
	}
	values.Set(name, value)
	l.u.RawQuery = values.Encode()
	l.replacements++
	return nil
}

// RemoveQueryParam implements AddressBar.
func (l *URL) RemoveQueryParam(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	values, err := url.ParseQuery(l.u.RawQuery)
	if err != nil {
		return fmt.Errorf("failed to parse query string: %w", err)
	}
	values.Del(name)
	l.u.RawQuery = values.Encode()
	l.replacements++
	return nil
}

// Href returns the path plus query string, or just the path when the query is
// empty. This is the value a browser host applies with history.replaceState.
func (l *URL) Href() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return href(l.u)
}

// String returns the full URL.
func (l *URL) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.u.String()
}

// Replacements returns how many history replacements have been made.
func (l *URL) Replacements() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.replacements
}

func href(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery == "" {
		return path
	}
	return path + "?" + u.RawQuery
}

// Unavailable is an address bar for hosts without a URL. Every call fails with
// ErrUnavailable.
type Unavailable struct{}

// ReadQueryParam implements AddressBar.
func (Unavailable) ReadQueryParam(string) (string, bool, error) {
	return "", false, ErrUnavailable
}

// ReplaceQueryParam implements AddressBar.
func (Unavailable) ReplaceQueryParam(string, string) error { return ErrUnavailable }

// RemoveQueryParam implements AddressBar.
func (Unavailable) RemoveQueryParam(string) error { return ErrUnavailable }
