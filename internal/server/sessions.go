package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperjump/instasearch/internal/location"
	"github.com/hyperjump/instasearch/internal/session"
	"go.uber.org/zap"
)

const defaultMaxSessions = 1024

// liveSession is a browser tab's session and the server-side copy of its URL.
type liveSession struct {
	session *session.Session
	bar     *location.URL
	created time.Time

	// mu orders edits; lastSeq is the highest edit number applied.
	mu      sync.Mutex
	lastSeq int64
}

// change applies text unless a later edit (by seq) was already applied.
// A zero seq is always applied. It reports whether text was applied.
func (ls *liveSession) change(text string, seq int64) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if seq > 0 {
		if seq <= ls.lastSeq {
			return false
		}
		ls.lastSeq = seq
	}
	ls.session.OnQueryChange(text)
	return true
}

// registry holds live sessions by id. The least recently used session is
// dropped when the registry is full; its tab falls back to a fresh session on
// the next request, when the page opens a new one. Dropped sessions are handed
// to release so the index generation they pin can be freed.
type registry struct {
	cache *lru.Cache[string, *liveSession]
}

func newRegistry(size int, release func(*session.Session), logger *zap.Logger) (*registry, error) {
	if size <= 0 {
		size = defaultMaxSessions
	}
	// Called for evictions and explicit removals alike.
	cache, err := lru.NewWithEvict(size, func(id string, ls *liveSession) {
		logger.Debug("session dropped", zap.String("id", id), zap.Duration("age", time.Since(ls.created)))
		if release != nil {
			release(ls.session)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session registry: %w", err)
	}
	return &registry{cache: cache}, nil
}

func (r *registry) add(ls *liveSession) string {
	id := uuid.NewString()
	r.cache.Add(id, ls)
	return id
}

func (r *registry) get(id string) (*liveSession, bool) {
	return r.cache.Get(id)
}

func (r *registry) remove(id string) bool {
	return r.cache.Remove(id)
}

func (r *registry) len() int {
	return r.cache.Len()
}

// cursorRecorder stands in for the browser's input during AttachInput; the
// recorded position travels to the page, which applies it.
type cursorRecorder struct {
	focused bool
	cursor  *int
}

func (c *cursorRecorder) Focus() { c.focused = true }

func (c *cursorRecorder) SetCursor(pos int) { c.cursor = &pos }
