package elo

import (
	"sort"
	"time"

	"github.com/okian/grapple/internal/domain/sequence"
)

// WrestlerState is one wrestler's rating and running counters.
type WrestlerState struct {
	ID   string
	Name string
	Team string

	Rating   float64
	Best     float64
	BestDate time.Time
	hasBest  bool

	Played     int
	Wins       int
	Losses     int
	WinsFall   int
	LossesFall int
	WinsDQ     int

	LastDate     time.Time
	LastOpponent string
	lastKey      sequence.Key
	hasLast      bool

	Halted bool
}

// State is the rating-state table of a run. It is created empty, grows as
// matches are applied and has exactly one writer, the Engine.
type State struct {
	wrestlers map[string]*WrestlerState
	applied   map[string]struct{}
	seq       int
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		wrestlers: make(map[string]*WrestlerState),
		applied:   make(map[string]struct{}),
	}
}

// Clone returns a deep copy, so an incremental run can extend a state
// without touching the original.
func (s *State) Clone() *State {
	c := &State{
		wrestlers: make(map[string]*WrestlerState, len(s.wrestlers)),
		applied:   make(map[string]struct{}, len(s.applied)),
		seq:       s.seq,
	}
	for id, w := range s.wrestlers {
		cp := *w
		c.wrestlers[id] = &cp
	}
	for id := range s.applied {
		c.applied[id] = struct{}{}
	}
	return c
}

// Wrestler returns a copy of one wrestler's state.
func (s *State) Wrestler(id string) (WrestlerState, bool) {
	w, ok := s.wrestlers[id]
	if !ok {
		return WrestlerState{}, false
	}
	return *w, true
}

// Wrestlers returns copies of every wrestler ordered by id.
func (s *State) Wrestlers() []WrestlerState {
	out := make([]WrestlerState, 0, len(s.wrestlers))
	for _, w := range s.wrestlers {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len is the number of wrestlers seen.
func (s *State) Len() int { return len(s.wrestlers) }

// Sequence is the number of matches processed so far.
func (s *State) Sequence() int { return s.seq }

// Applied reports whether a match id has already been processed.
func (s *State) Applied(matchID string) bool {
	_, ok := s.applied[matchID]
	return ok
}

func (s *State) get(id, name, team string, initial float64) *WrestlerState {
	w, ok := s.wrestlers[id]
	if !ok {
		w = &WrestlerState{ID: id, Name: name, Team: team, Rating: initial}
		s.wrestlers[id] = w
	}
	if name != "" {
		w.Name = name
	}
	if team != "" {
		w.Team = team
	}
	return w
}

// BestRating is the highest post-match rating, or the current rating when
// no rated match has been applied yet.
func (w WrestlerState) BestRating() float64 {
	if !w.hasBest {
		return w.Rating
	}
	return w.Best
}

func (w *WrestlerState) observe(post float64, date time.Time) {
	if !w.hasBest || post > w.Best {
		w.Best, w.BestDate, w.hasBest = post, date, true
	}
}

// advance moves the wrestler's last applied key forward. It never moves
// back, so every later out-of-order match is still detected.
func (w *WrestlerState) advance(key sequence.Key) bool {
	if w.hasLast && sequence.Compare(key, w.lastKey) <= 0 {
		return false
	}
	w.lastKey, w.hasLast = key, true
	return true
}
