// Package dedupe tracks which round documents a run has already accepted.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/grapple/internal/domain/model"
)

// Deduper records seen document keys so each round is extracted once.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. Safe for concurrent use.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key, e.g. when an accepted document could not be
	// queued and may be offered again.
	Unrecord(ctx context.Context, key string)

	Size() int64

	// Clone returns an independent copy; recording into it leaves the
	// original untouched.
	Clone() Deduper
}

// SeenDocument records doc under its (event, round) key.
func SeenDocument(ctx context.Context, d Deduper, doc model.RoundDocument) bool {
	return d.SeenAndRecord(ctx, doc.Key())
}

// inMemoryDeduper keeps keys in a map. When bounded, insertion order is kept
// in a ring and the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> ring slot, -1 when unbounded
	ring    []string
	next    int
	maxSize int
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 100000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, 0, min(d.maxSize, 1024))
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		return false
	}
	if len(d.ring) < d.maxSize {
		d.ring = append(d.ring, key)
		d.seen[key] = len(d.ring) - 1
		return false
	}
	// full: overwrite the oldest slot
	slot := d.next
	if old := d.ring[slot]; d.seen[old] == slot {
		delete(d.seen, old)
	}
	d.ring[slot] = key
	d.seen[key] = slot
	d.next = (slot + 1) % len(d.ring)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Clone() Deduper {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &inMemoryDeduper{
		seen:    make(map[string]int, len(d.seen)),
		ring:    append(make([]string, 0, cap(d.ring)), d.ring...),
		next:    d.next,
		maxSize: d.maxSize,
	}
	for k, v := range d.seen {
		c.seen[k] = v
	}
	return c
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
