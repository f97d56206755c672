// Package content loads searchable items from a directory of markdown posts
// with YAML frontmatter.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/pkg/utils"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoFrontmatter is returned for a post that does not start with a "---" block.
	ErrNoFrontmatter = errors.New("missing frontmatter")
	// ErrMissingTitle is returned for a post whose frontmatter has no title.
	ErrMissingTitle = errors.New("missing title")
	// ErrDuplicateSlug is returned when two posts resolve to the same slug.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// DefaultExtensions are the post file extensions loaded when none are configured.
var DefaultExtensions = []string{".md", ".mdx"}

// wordsPerMinute drives the reading time estimate.
const wordsPerMinute = 200

type frontmatter struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Slug        string     `yaml:"slug"`
	Author      string     `yaml:"author"`
	PubDatetime time.Time  `yaml:"pubDatetime"`
	ModDatetime *time.Time `yaml:"modDatetime"`
	Tags        []string   `yaml:"tags"`
	Featured    bool       `yaml:"featured"`
	Draft       bool       `yaml:"draft"`
	OgImage     string     `yaml:"ogImage"`
}

// Post is a parsed content file.
type Post struct {
	Item  models.Item
	Draft bool
	// sortKey is the modification date when present, the publication date otherwise.
	sortKey time.Time
}

// Loader reads posts from a directory tree.
type Loader struct {
	dir        string
	extensions []string
	logger     *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithExtensions sets which file extensions are treated as posts.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		if len(exts) == 0 {
			return
		}
		l.extensions = make([]string, 0, len(exts))
		for _, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			l.extensions = append(l.extensions, e)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:        dir,
		extensions: DefaultExtensions,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the content directory.
func (l *Loader) Dir() string { return l.dir }

// Matches reports whether path has a post extension and is not hidden or
// underscore-prefixed.
func (l *Loader) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range l.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load walks the directory and returns all published posts as items, newest
// first (ties by slug). Any malformed post fails the whole load.
func (l *Loader) Load(ctx context.Context) ([]models.Item, error) {
	var posts []Post
	seen := make(map[string]string)

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.Matches(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		post, err := ParsePost(path, data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if post.Draft {
			l.logger.Debug("skipping draft", zap.String("path", path))
			return nil
		}
		if prev, ok := seen[post.Item.Slug]; ok {
			return fmt.Errorf("%w %q: %s and %s", ErrDuplicateSlug, post.Item.Slug, prev, path)
		}
		seen[post.Item.Slug] = path
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load content from %s: %w", l.dir, err)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].sortKey.Equal(posts[j].sortKey) {
			return posts[i].sortKey.After(posts[j].sortKey)
		}
		return posts[i].Item.Slug < posts[j].Item.Slug
	})

	items := make([]models.Item, len(posts))
	for i, p := range posts {
		items[i] = p.Item
	}
	l.logger.Info("content loaded", zap.String("dir", l.dir), zap.Int("items", len(items)))
	return items, nil
}

// ParsePost parses one post. path only provides the fallback slug.
func ParsePost(path string, data []byte) (Post, error) {
	head, body, err := splitFrontmatter(data)
	if err != nil {
		return Post{}, err
	}
	var fm frontmatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return Post{}, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return Post{}, ErrMissingTitle
	}

	slug := fm.Slug
	if slug == "" {
		slug = utils.Slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}

	meta := map[string]interface{}{
		"readingTime": readingTime(body),
	}
	if len(fm.Tags) > 0 {
		meta["tags"] = fm.Tags
	}
	if fm.Author != "" {
		meta["author"] = fm.Author
	}
	if fm.Featured {
		meta["featured"] = true
	}
	if fm.OgImage != "" {
		meta["ogImage"] = fm.OgImage
	}
	sortKey := fm.PubDatetime
	if !fm.PubDatetime.IsZero() {
		meta["pubDatetime"] = fm.PubDatetime.UTC().Format(time.RFC3339)
	}
	if fm.ModDatetime != nil && !fm.ModDatetime.IsZero() {
		meta["modDatetime"] = fm.ModDatetime.UTC().Format(time.RFC3339)
		sortKey = *fm.ModDatetime
	}

	return Post{
		Item: models.Item{
			Title:       fm.Title,
			Description: fm.Description,
			Slug:        slug,
			Metadata:    meta,
		},
		Draft:   fm.Draft,
		sortKey: sortKey,
	}, nil
}

func splitFrontmatter(data []byte) (head, body []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return nil, nil, ErrNoFrontmatter
	}
	rest := data[len("---\n"):]
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		return nil, bytes.TrimPrefix(rest, []byte("---")), nil
	}
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, ErrNoFrontmatter
	}
	head = rest[:end]
	body = rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return head, body, nil
}

func readingTime(body []byte) string {
	words := len(strings.Fields(string(body)))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
