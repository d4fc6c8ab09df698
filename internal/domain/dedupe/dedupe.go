// Package dedupe recognises repeated uploads of the same combat log.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the number of remembered digests.
const defaultMaxSize = 50_000

// Deduper maps upload content digests to the dataset created for them.
type Deduper interface {
	// SeenAndRecord atomically looks digest up. When it was already recorded
	// it returns the stored dataset id and true; otherwise it records id for
	// digest and returns id and false.
	SeenAndRecord(ctx context.Context, digest, id string) (string, bool)

	// Unrecord forgets digest, e.g. after the dataset was deleted or the
	// upload failed to persist.
	Unrecord(ctx context.Context, digest string)

	Size() int64
}

type entry struct {
	digest string
	id     string
}

// inMemoryDeduper keeps digests in insertion order. In bounded mode
// (maxSize > 0) the oldest digest is evicted first; with maxSize <= 0 it
// never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, digest, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[digest]; ok {
		return el.Value.(entry).id, true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[digest] = d.order.PushBack(entry{digest: digest, id: id})
	d.size.Add(1)
	return id, false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[digest]; ok {
		d.order.Remove(el)
		delete(d.seen, digest)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(entry).digest)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
