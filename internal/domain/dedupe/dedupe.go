// Package dedupe tracks which events have already been accepted so that each
// event key is analyzed at most once.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/okian/vertexntuples/internal/domain/model"
)

// DefaultMaxSize bounds the number of remembered event keys.
const DefaultMaxSize = 50000

// Deduper records seen event keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key model.EventKey) bool

	// Unrecord forgets key so the event can be resubmitted. Used when an
	// event was recorded but could not be queued.
	Unrecord(ctx context.Context, key model.EventKey)

	Size() int64
}

// lruDeduper remembers the most recently accepted keys. Once full, the
// least recently seen key is evicted and would be accepted again.
type lruDeduper struct {
	maxSize int
	cache   *lru.Cache[model.EventKey, struct{}]
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &lruDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize <= 0 {
		d.maxSize = DefaultMaxSize
	}

	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[model.EventKey, struct{}](d.maxSize)
	d.cache = cache
	return d
}

// SeenAndRecord implements Deduper.
func (d *lruDeduper) SeenAndRecord(_ context.Context, key model.EventKey) bool {
	seen, _ := d.cache.ContainsOrAdd(key, struct{}{})
	return seen
}

// Unrecord implements Deduper.
func (d *lruDeduper) Unrecord(_ context.Context, key model.EventKey) {
	d.cache.Remove(key)
}

// Size returns the number of remembered keys.
func (d *lruDeduper) Size() int64 {
	return int64(d.cache.Len())
}
