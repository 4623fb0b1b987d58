// Package aggregate folds rated matches and the final rating state into the
// summary tables read by reporting: wrestler summaries, rating history,
// head-to-head records and season leaderboards.
//
// Every table is a fold of commutative reductions (sum, max, count) over a
// wrestler's own chain, so wrestlers are folded concurrently and merged in
// id order.
package aggregate

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/grapple/internal/domain/elo"
	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/sequence"
	"github.com/okian/grapple/pkg/logger"
)

// Aggregator builds the summary tables.
type Aggregator struct {
	seasonStart time.Month
	workers     int
	logger      logger.Logger
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithSeasonStartMonth sets the month a season starts in.
func WithSeasonStartMonth(m time.Month) Option {
	return func(a *Aggregator) {
		if m >= time.January && m <= time.December {
			a.seasonStart = m
		}
	}
}

// WithWorkers bounds the number of concurrent wrestler folds.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		seasonStart: DefaultSeasonStartMonth,
		workers:     runtime.GOMAXPROCS(0),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type fold struct {
	summary WrestlerSummary
	history []HistoryEntry
	h2h     []HeadToHead
	rows    []IndividualRow
}

// Aggregate folds matches, in sequence order as returned by the engine, and
// the state they produced. It only fails when ctx is cancelled.
func (a *Aggregator) Aggregate(ctx context.Context, st *elo.State, matches []model.RatedMatch) (Result, error) {
	plain := make([]model.Match, len(matches))
	for i, m := range matches {
		plain[i] = m.Match
	}
	chains := sequence.Chains(plain)
	wrestlers := st.Wrestlers()

	folds := make([]fold, len(wrestlers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, ws := range wrestlers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			folds[i] = a.fold(ws, matches, chains[ws.ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, f := range folds {
		res.Wrestlers = append(res.Wrestlers, f.summary)
		res.History = append(res.History, f.history...)
		res.HeadToHead = append(res.HeadToHead, f.h2h...)
		res.Individuals = append(res.Individuals, f.rows...)
	}
	rank(res.Wrestlers)
	sort.SliceStable(res.History, func(i, j int) bool {
		x, y := res.History[i], res.History[j]
		if x.Sequence != y.Sequence {
			return x.Sequence < y.Sequence
		}
		return x.Role == "W" && y.Role != "W"
	})
	sort.SliceStable(res.Individuals, func(i, j int) bool {
		x, y := res.Individuals[i], res.Individuals[j]
		if x.Season != y.Season {
			return x.Season > y.Season
		}
		if x.Played != y.Played {
			return x.Played > y.Played
		}
		return x.ID < y.ID
	})
	res.Teams = teams(res.Individuals)

	a.logger.Info(ctx, "aggregated",
		logger.Int("wrestlers", len(res.Wrestlers)),
		logger.Int("history", len(res.History)),
		logger.Int("individual_rows", len(res.Individuals)),
		logger.Int("team_rows", len(res.Teams)))
	return res, nil
}

func (a *Aggregator) fold(ws elo.WrestlerState, matches []model.RatedMatch, chain []int) fold {
	f := fold{summary: WrestlerSummary{
		ID:           ws.ID,
		Name:         ws.Name,
		Team:         ws.Team,
		Played:       ws.Played,
		Wins:         ws.Wins,
		Losses:       ws.Losses,
		WinsFall:     ws.WinsFall,
		LossesFall:   ws.LossesFall,
		WinsDQ:       ws.WinsDQ,
		Rating:       ws.Rating,
		Best:         ws.BestRating(),
		BestDate:     ws.BestDate,
		LastDate:     ws.LastDate,
		LastOpponent: ws.LastOpponent,
	}}

	h2h := make(map[string]*HeadToHead)
	seasons := make(map[string]*IndividualRow)
	var seasonOrder []string
	var oppSum float64

	for _, i := range chain {
		m := matches[i]
		if !m.Rating.Outcome.Counts() {
			continue
		}
		win := m.Winner.ID == ws.ID
		self, pre, post := m.Winner, m.Rating.WinnerPre, m.Rating.WinnerPost
		var opp model.Participant
		oppPre := m.Rating.LoserPre
		if m.HasLoser() {
			opp = *m.Loser
		}
		if !win {
			self, pre, post = *m.Loser, m.Rating.LoserPre, m.Rating.LoserPost
			opp, oppPre = m.Winner, m.Rating.WinnerPre
		}
		rated := m.Rating.Outcome == model.OutcomeRated

		var upset *Upset
		if rated {
			f.history = append(f.history, HistoryEntry{
				MatchID:      m.ID,
				Sequence:     m.Rating.Sequence,
				Date:         m.Date,
				EventID:      m.EventID,
				EventName:    m.EventName,
				WrestlerID:   ws.ID,
				WrestlerName: self.Name,
				Team:         self.Team,
				Role:         role(win),
				OpponentID:   opp.ID,
				OpponentName: opp.Name,
				OpponentTeam: opp.Team,
				Decision:     m.Decision.String(),
				Pre:          pre,
				Post:         post,
				OpponentPre:  oppPre,
			})
			oppSum += oppPre
			f.summary.Opponents++
			if gain := post - pre; win && gain > 0 {
				upset = &Upset{
					Gain:         gain,
					MatchID:      m.ID,
					Date:         m.Date,
					EventID:      m.EventID,
					EventName:    m.EventName,
					OpponentID:   opp.ID,
					OpponentName: opp.Name,
					OpponentTeam: opp.Team,
					Decision:     m.Decision.String(),
					ResultCode:   m.ResultCode,
				}
			}
		}

		if opp.ID != "" {
			h, ok := h2h[opp.ID]
			if !ok {
				h = &HeadToHead{WrestlerID: ws.ID, OpponentID: opp.ID}
				h2h[opp.ID] = h
			}
			if win {
				h.Wins++
			} else {
				h.Losses++
			}
			h.RatingChange += post - pre
		}

		for _, season := range []string{Season(m.Date, a.seasonStart), AllSeasons} {
			r, ok := seasons[season]
			if !ok {
				r = &IndividualRow{Season: season, ID: ws.ID, Highest: post}
				seasons[season] = r
				seasonOrder = append(seasonOrder, season)
			}
			r.Name, r.Team, r.rating = self.Name, self.Team, post
			r.Played++
			if win {
				r.Wins++
				if m.Decision == model.DecisionFall {
					r.WinsFall++
				}
			} else {
				r.Losses++
			}
			if post > r.Highest {
				r.Highest = post
			}
			if upset != nil && (r.Upset == nil || upset.Gain > r.Upset.Gain) {
				u := *upset
				r.Upset = &u
			}
		}
	}

	if f.summary.Opponents > 0 {
		f.summary.AvgOpponent = oppSum / float64(f.summary.Opponents)
	}
	if all, ok := seasons[AllSeasons]; ok {
		all.Name, all.Team, all.rating = ws.Name, ws.Team, ws.Rating
		f.summary.Upset = all.Upset
	}
	for _, s := range seasonOrder {
		f.rows = append(f.rows, *seasons[s])
	}
	for _, h := range h2h {
		f.h2h = append(f.h2h, *h)
	}
	sort.Slice(f.h2h, func(i, j int) bool { return f.h2h[i].OpponentID < f.h2h[j].OpponentID })
	return f
}

func role(win bool) string {
	if win {
		return "W"
	}
	return "L"
}

// rank orders summaries by current rating, highest first, ties by id.
func rank(ws []WrestlerSummary) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Rating != ws[j].Rating {
			return ws[i].Rating > ws[j].Rating
		}
		return ws[i].ID < ws[j].ID
	})
	for i := range ws {
		ws[i].Rank = i + 1
	}
}

func teams(rows []IndividualRow) []TeamRow {
	type key struct{ season, team string }
	byKey := make(map[key]*TeamRow)
	ratings := make(map[key]float64)
	for _, r := range rows {
		if r.Team == "" {
			continue
		}
		k := key{r.Season, r.Team}
		t, ok := byKey[k]
		if !ok {
			t = &TeamRow{Season: r.Season, Team: r.Team, Best: r.Highest}
			byKey[k] = t
		}
		t.Wrestlers++
		t.Played += r.Played
		t.Wins += r.Wins
		t.Losses += r.Losses
		t.WinsFall += r.WinsFall
		if r.Highest > t.Best {
			t.Best = r.Highest
		}
		ratings[k] += r.rating
	}
	out := make([]TeamRow, 0, len(byKey))
	for k, t := range byKey {
		t.AvgRating = ratings[k] / float64(t.Wrestlers)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if x.Season != y.Season {
			return x.Season > y.Season
		}
		if x.Played != y.Played {
			return x.Played > y.Played
		}
		return x.Team < y.Team
	})
	return out
}
