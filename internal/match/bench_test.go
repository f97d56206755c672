package match

import (
	"fmt"
	"testing"

	"github.com/hyperjump/instasearch/internal/models"
)

var benchWords = []string{"astro", "static", "pasta", "typescript", "garden", "recipe", "deploy", "markdown", "search", "theme"}

func benchItems(n int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		w := benchWords[i%len(benchWords)]
		items[i] = models.Item{
			Title:       fmt.Sprintf("Notes on %s, part %d", w, i),
			Description: fmt.Sprintf("A longer description about %s and %s for post %d", w, benchWords[(i+3)%len(benchWords)], i),
			Slug:        fmt.Sprintf("post-%d", i),
		}
	}
	return items
}

func BenchmarkBuild(b *testing.B) {
	items := benchItems(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Build(items)
	}
}

func BenchmarkIndexSearch(b *testing.B) {
	idx, _ := Build(benchItems(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Search("typscript")
	}
}

func BenchmarkIndexSearch_LongPattern(b *testing.B) {
	idx, _ := Build(benchItems(1000))
	query := "a longer description about markdown and search"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Search(query)
	}
}

func BenchmarkCachedSearch(b *testing.B) {
	idx, _ := Build(benchItems(1000))
	c, _ := NewCached(idx, 128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Search("typscript")
	}
}

func BenchmarkBleveSearch(b *testing.B) {
	idx, err := NewBleveIndex(benchItems(1000))
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Search("typscript")
	}
}
