package location

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestURL_ReadQueryParam(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantValue string
		wantOK    bool
	}{
		{"absent", "/search", "", false},
		{"present", "/search?q=cat", "cat", true},
		{"decoded", "/search?q=hello+world%21", "hello world!", true},
		{"empty value", "/search?q=", "", true},
		{"other params", "https://example.com/search?page=2&q=go", "go", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := MustParse(tt.raw)
			got, ok, err := l.ReadQueryParam("q")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.wantValue || ok != tt.wantOK {
				t.Errorf("ReadQueryParam = (%q, %v), want (%q, %v)", got, ok, tt.wantValue, tt.wantOK)
			}
		})
	}
}

func TestURL_ReplaceAndRemove(t *testing.T) {
	l := MustParse("/search?page=2")
	if err := l.ReplaceQueryParam("q", "hello world"); err != nil {
		t.Fatal(err)
	}
	if got := l.Href(); got != "/search?page=2&q=hello+world" {
		t.Errorf("Href() = %q", got)
	}
	v, ok, _ := l.ReadQueryParam("q")
	if !ok || v != "hello world" {
		t.Errorf("round trip = (%q, %v)", v, ok)
	}
	if err := l.RemoveQueryParam("q"); err != nil {
		t.Fatal(err)
	}
	if got := l.Href(); got != "/search?page=2" {
		t.Errorf("Href() after remove = %q", got)
	}
	if l.Replacements() != 2 {
		t.Errorf("Replacements() = %d, want 2", l.Replacements())
	}
}

func TestURL_HrefWithoutQuery(t *testing.T) {
	l := MustParse("/search?q=cat")
	if err := l.RemoveQueryParam("q"); err != nil {
		t.Fatal(err)
	}
	if got := l.Href(); got != "/search" {
		t.Errorf("Href() = %q, want bare path", got)
	}
	if got := MustParse("?q=x").Href(); got != "/?q=x" {
		t.Errorf("Href() for empty path = %q", got)
	}
}

func TestFromURL_Copies(t *testing.T) {
	u, _ := url.Parse("/search?q=a")
	l := FromURL(u)
	_ = l.ReplaceQueryParam("q", "b")
	if u.RawQuery != "q=a" {
		t.Errorf("source URL mutated: %q", u.RawQuery)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("http://[::1"); err == nil {
		t.Error("expected parse error")
	}
}

func TestUnavailable(t *testing.T) {
	var bar AddressBar = Unavailable{}
	if _, _, err := bar.ReadQueryParam("q"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("read err = %v", err)
	}
	if err := bar.ReplaceQueryParam("q", "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("replace err = %v", err)
	}
	if err := bar.RemoveQueryParam("q"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("remove err = %v", err)
	}
}

func TestFile_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "address")
	f, err := OpenFile(path, "instasearch:///search")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.ReadQueryParam("q"); ok {
		t.Fatal("fresh state should have no query")
	}
	if err := f.ReplaceQueryParam("q", "cat"); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenFile(path, "instasearch:///search")
	if err != nil {
		t.Fatal(err)
	}
	v, ok, err := reopened.ReadQueryParam("q")
	if err != nil || !ok || v != "cat" {
		t.Errorf("restored = (%q, %v, %v), want cat", v, ok, err)
	}

	if err := reopened.RemoveQueryParam("q"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "instasearch:///search\n" {
		t.Errorf("state file = %q", string(data))
	}
}

func TestFile_ImplementsAddressBar(t *testing.T) {
	var _ AddressBar = (*File)(nil)
	var _ AddressBar = (*URL)(nil)
}
