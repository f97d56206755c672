// Package storage persists item snapshots so hosts can start without parsing
// the content directory.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/instasearch/internal/models"
)

// ErrNotFound is returned when no item has the requested slug.
var ErrNotFound = errors.New("item not found")

// Storage defines item snapshot operations.
type Storage interface {
	// ReplaceItems swaps the whole snapshot for items, keeping their order.
	ReplaceItems(ctx context.Context, items []models.Item) error
	// ListItems returns the snapshot in its original order.
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, slug string) (*models.Item, error)
	CountItems(ctx context.Context) (int64, error)
	// LastImport is the time of the latest ReplaceItems, zero when empty.
	LastImport(ctx context.Context) (time.Time, error)

	Close() error
}
