// Package sequence puts matches from many events into one total order.
//
// The order is (1) match date, (2) event id, (3) round ordinal, (4) bout
// number within the round document, then winner and loser identity, round id
// and match id. Elo is path dependent, so changing this order changes
// historical ratings.
package sequence

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/pkg/logger"
)

// Key is the ordering key of one match.
type Key struct {
	Date    time.Time
	EventID string
	Round   int
	Bout    int
	Winner  string
	Loser   string
	RoundID string
	MatchID string
}

// KeyOf derives the ordering key of m. An explicit round ordinal wins over
// the label table.
func KeyOf(m model.Match) Key {
	round := m.RoundOrdinal
	if round <= 0 {
		label := m.RoundLabel
		if label == "" {
			label = m.Bracket
		}
		round = RoundOrder(label)
	}
	k := Key{
		Date:    m.Date,
		EventID: m.EventID,
		Round:   round,
		Bout:    m.Bout,
		Winner:  m.Winner.ID,
		RoundID: m.RoundID,
		MatchID: m.ID,
	}
	if m.Loser != nil {
		k.Loser = m.Loser.ID
	}
	return k
}

// Compare orders keys; it returns 0 only for identical keys.
func Compare(a, b Key) int {
	if c := comparePrimary(a, b); c != 0 {
		return c
	}
	return cmp.Or(
		cmp.Compare(a.Winner, b.Winner),
		cmp.Compare(a.Loser, b.Loser),
		cmp.Compare(a.RoundID, b.RoundID),
		cmp.Compare(a.MatchID, b.MatchID),
	)
}

func comparePrimary(a, b Key) int {
	return cmp.Or(
		a.Date.Compare(b.Date),
		compareEventID(a.EventID, b.EventID),
		cmp.Compare(a.Round, b.Round),
		cmp.Compare(a.Bout, b.Bout),
	)
}

// compareEventID compares numerically when both ids are integers.
func compareEventID(a, b string) int {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil && x != y {
		return cmp.Compare(x, y)
	}
	return cmp.Compare(a, b)
}

// Result is a sequenced match stream and the ambiguities met on the way.
type Result struct {
	Matches []model.Match
	Report  model.Report
}

// Sequencer sorts matches into rating order.
type Sequencer struct {
	logger logger.Logger
}

// Option applies a configuration option to the Sequencer.
type Option func(*Sequencer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Sequencer.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sequence returns a sorted copy of matches. Input order never affects the
// result. Matches tied on every primary key are reported as ambiguities and
// ordered by the secondary keys.
func (s *Sequencer) Sequence(ctx context.Context, matches []model.Match) Result {
	type keyed struct {
		key Key
		m   model.Match
	}
	ks := make([]keyed, len(matches))
	for i, m := range matches {
		ks[i] = keyed{key: KeyOf(m), m: m}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int { return Compare(a.key, b.key) })

	res := Result{Matches: make([]model.Match, len(ks))}
	for i, k := range ks {
		res.Matches[i] = k.m
		if i > 0 && comparePrimary(ks[i-1].key, k.key) == 0 {
			res.Report.Add(model.Issue{
				Kind:    model.IssueAmbiguity,
				EventID: k.m.EventID,
				RoundID: k.m.RoundID,
				Row:     k.m.Bout,
				MatchID: k.m.ID,
				Reason:  fmt.Sprintf("tied with %s on date, event, round and bout", ks[i-1].m.ID),
			})
		}
	}
	if n := len(res.Report.Issues); n > 0 {
		s.logger.Info(ctx, "sequencing ties resolved by participant order", logger.Int("ambiguities", n))
	}
	return res
}

// Chains returns, per wrestler id, the positions of that wrestler's matches
// in an already sequenced slice.
func Chains(sequenced []model.Match) map[string][]int {
	out := make(map[string][]int)
	for i, m := range sequenced {
		out[m.Winner.ID] = append(out[m.Winner.ID], i)
		if m.HasLoser() {
			out[m.Loser.ID] = append(out[m.Loser.ID], i)
		}
	}
	return out
}
