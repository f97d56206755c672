package location

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is an address bar whose URL survives restarts: every replacement is
// written to a state file, and opening the same file restores it.
type File struct {
	*URL
	path string
}

// OpenFile loads the URL stored at path, or starts at defaultURL when the file
// does not exist yet.
func OpenFile(path, defaultURL string) (*File, error) {
	raw := defaultURL
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if s := strings.TrimSpace(string(data)); s != "" {
			raw = s
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read address state: %w", err)
	}
	u, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &File{URL: u, path: path}, nil
}

// Path returns the state file path.
func (f *File) Path() string { return f.path }

// ReplaceQueryParam implements AddressBar and persists the new URL.
func (f *File) ReplaceQueryParam(name, value string) error {
	if err := f.URL.ReplaceQueryParam(name, value); err != nil {
		return err
	}
	return f.save()
}

// RemoveQueryParam implements AddressBar and persists the new URL.
func (f *File) RemoveQueryParam(name string) error {
	if err := f.URL.RemoveQueryParam(name); err != nil {
		return err
	}
	return f.save()
}

// save writes the URL atomically (temp file, then rename).
func (f *File) save() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".address-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(f.URL.String() + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write address state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write address state: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace address state: %w", err)
	}
	return nil
}
