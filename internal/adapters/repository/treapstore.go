package repository

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/grapple/internal/domain/types"
	"github.com/okian/grapple/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then wrestler id ASC, so an in-order walk is the
// leaderboard from best to worst. Subtree sizes make rank O(log n).
// Priorities are a hash of the id, which keeps the shape independent of
// insertion order.

type node struct {
	entry types.Entry
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aRating, aID) ranks before (bRating, bID).
func less(aRating float64, aID string, bRating float64, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if less(nn.entry.Rating, nn.entry.WrestlerID, n.entry.Rating, n.entry.WrestlerID) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, rating float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.entry.WrestlerID == id && n.entry.Rating == rating:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, rating)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, rating)
		}
	case less(rating, id, n.entry.Rating, n.entry.WrestlerID):
		n.left = deleteNode(n.left, id, rating)
	default:
		n.right = deleteNode(n.right, id, rating)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of (rating, id).
func position(n *node, id string, rating float64) int {
	pos := 0
	for n != nil {
		switch {
		case n.entry.WrestlerID == id && n.entry.Rating == rating:
			return pos + nsize(n.left) + 1
		case less(rating, id, n.entry.Rating, n.entry.WrestlerID):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		e := n.entry
		e.Rank = len(*out) + 1
		*out = append(*out, e)
	}
	collectTopN(n.right, limit, out)
}

// TreapStore is an in-memory Store.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]types.Entry
	seed uint64
}

// NewTreapStore constructs an empty treap store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{byID: make(map[string]types.Entry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TreapStore) priority(id string) uint64 {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], s.seed)
	d := xxhash.New()
	_, _ = d.Write(seed[:])
	_, _ = d.WriteString(id)
	return d.Sum64()
}

func (s *TreapStore) upsertLocked(e types.Entry) {
	if old, ok := s.byID[e.WrestlerID]; ok {
		s.root = deleteNode(s.root, old.WrestlerID, old.Rating)
	}
	e.Rank = 0
	s.byID[e.WrestlerID] = e
	s.root = insert(s.root, &node{entry: e, prio: s.priority(e.WrestlerID), size: 1})
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, e types.Entry) error {
	if e.WrestlerID == "" {
		return ErrInvalidEntry
	}
	s.mu.Lock()
	s.upsertLocked(e)
	n := len(s.byID)
	s.mu.Unlock()
	metrics.UpdateTotalWrestlers(n)
	return nil
}

// Replace implements Store.Replace. Readers see either the old or the new
// index, never a mix.
func (s *TreapStore) Replace(_ context.Context, entries []types.Entry) error {
	start := time.Now()
	next := &TreapStore{byID: make(map[string]types.Entry, len(entries)), seed: s.seed}
	for _, e := range entries {
		if e.WrestlerID == "" {
			return ErrInvalidEntry
		}
		next.upsertLocked(e)
	}
	s.mu.Lock()
	s.root, s.byID = next.root, next.byID
	s.mu.Unlock()
	metrics.UpdateTotalWrestlers(len(next.byID))
	metrics.RecordStageDuration("index", float64(time.Since(start).Microseconds())/1000)
	return nil
}

// Rank implements Store.Rank in O(log n).
func (s *TreapStore) Rank(_ context.Context, wrestlerID string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[wrestlerID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	e.Rank = position(s.root, e.WrestlerID, e.Rating)
	return e, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &out)
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
