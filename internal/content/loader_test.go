package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePost(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "older-post.md", `---
title: Older Post
description: Written first
pubDatetime: 2023-01-10T08:00:00Z
tags:
  - astro
  - blog
---
Some body text.
`)
	writePost(t, dir, "nested/Newer Post.mdx", `---
title: Newer Post
description: Written later
pubDatetime: 2024-05-01T08:00:00Z
---
`)
	writePost(t, dir, "updated.md", `---
title: Updated Post
slug: custom-slug
pubDatetime: 2022-01-01T00:00:00Z
modDatetime: 2024-06-01T00:00:00Z
ogImage: /og.png
---
`)
	writePost(t, dir, "draft.md", `---
title: Draft
draft: true
---
`)
	writePost(t, dir, "_partial.md", "not a post")
	writePost(t, dir, "notes.txt", "ignored")
	writePost(t, dir, ".hidden/secret.md", "---\ntitle: Hidden\n---\n")

	items, err := NewLoader(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var slugs []string
	for _, it := range items {
		slugs = append(slugs, it.Slug)
	}
	want := []string{"custom-slug", "newer-post", "older-post"}
	if strings.Join(slugs, ",") != strings.Join(want, ",") {
		t.Fatalf("slugs = %v, want %v", slugs, want)
	}

	older := items[2]
	if older.Title != "Older Post" || older.Description != "Written first" {
		t.Errorf("unexpected item: %+v", older)
	}
	if tags := older.MetaStrings("tags"); len(tags) != 2 || tags[0] != "astro" {
		t.Errorf("tags = %v", tags)
	}
	if got := older.MetaString("pubDatetime"); got != "2023-01-10T08:00:00Z" {
		t.Errorf("pubDatetime = %q", got)
	}
	if got := older.MetaString("readingTime"); got != "1 min read" {
		t.Errorf("readingTime = %q", got)
	}
	if got := items[0].MetaString("ogImage"); got != "/og.png" {
		t.Errorf("ogImage = %q", got)
	}
	if got := items[0].MetaString("modDatetime"); got != "2024-06-01T00:00:00Z" {
		t.Errorf("modDatetime = %q", got)
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no frontmatter", "# Just markdown\n", ErrNoFrontmatter},
		{"unterminated", "---\ntitle: x\n", ErrNoFrontmatter},
		{"missing title", "---\ndescription: nothing\n---\n", ErrMissingTitle},
		{"empty frontmatter", "---\n---\nbody\n", ErrMissingTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writePost(t, dir, "post.md", tt.body)
			_, err := NewLoader(dir).Load(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoader_DuplicateSlug(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", "---\ntitle: A\nslug: same\n---\n")
	writePost(t, dir, "b.md", "---\ntitle: B\nslug: same\n---\n")
	_, err := NewLoader(dir).Load(context.Background())
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("err = %v, want ErrDuplicateSlug", err)
	}
}

func TestLoader_TiesBySlug(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "b.md", "---\ntitle: B\npubDatetime: 2024-01-01T00:00:00Z\n---\n")
	writePost(t, dir, "a.md", "---\ntitle: A\npubDatetime: 2024-01-01T00:00:00Z\n---\n")
	items, err := NewLoader(dir).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Slug != "a" || items[1].Slug != "b" {
		t.Errorf("items = %+v", items)
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", "---\ntitle: A\n---\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLoader(dir).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoader_Matches(t *testing.T) {
	l := NewLoader("/content", WithExtensions("md", ".TXT"))
	tests := []struct {
		path string
		want bool
	}{
		{"/content/post.md", true},
		{"/content/post.MD", true},
		{"/content/notes.txt", true},
		{"/content/post.mdx", false},
		{"/content/.post.md", false},
		{"/content/_draft.md", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := l.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParsePost_ReadingTime(t *testing.T) {
	body := "---\ntitle: Long\n---\n" + strings.Repeat("word ", 450)
	post, err := ParsePost("long.md", []byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if got := post.Item.MetaString("readingTime"); got != "3 min read" {
		t.Errorf("readingTime = %q, want 3 min read", got)
	}
}

func TestParsePost_CRLFAndBOM(t *testing.T) {
	data := "\xef\xbb\xbf---\r\ntitle: Windows\r\ndescription: crlf\r\n---\r\nbody\r\n"
	post, err := ParsePost("Windows Post.md", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if post.Item.Title != "Windows" || post.Item.Description != "crlf" || post.Item.Slug != "windows-post" {
		t.Errorf("got %+v", post.Item)
	}
}
