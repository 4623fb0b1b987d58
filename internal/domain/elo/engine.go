// Package elo rates a sequenced match stream.
//
// The engine is the only writer of a State. Each match moves exactly two
// ratings by the same amount in opposite directions; nothing else ever
// touches a rating, so a wrestler's rating is a pure fold of the update
// over that wrestler's chain.
package elo

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/sequence"
	"github.com/okian/grapple/pkg/logger"
)

// InconsistencyPolicy selects what happens when a match arrives out of
// order for one of its wrestlers.
type InconsistencyPolicy uint8

const (
	// Halt stops the wrestler's chain: the match and every later match of
	// that wrestler are refused.
	Halt InconsistencyPolicy = iota
	// Continue applies the match on the current rating and records a warning.
	Continue
)

// ParseInconsistencyPolicy accepts "halt" or "continue".
func ParseInconsistencyPolicy(s string) (InconsistencyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "halt":
		return Halt, nil
	case "continue":
		return Continue, nil
	}
	return Halt, fmt.Errorf("unknown inconsistency policy %q", s)
}

func (p InconsistencyPolicy) String() string {
	if p == Continue {
		return "continue"
	}
	return "halt"
}

// Result is what one Apply produced.
type Result struct {
	Matches []model.RatedMatch
	Report  model.Report
}

// Outcomes counts the rated matches by outcome.
func (r Result) Outcomes() map[model.Outcome]int {
	out := make(map[model.Outcome]int, 4)
	for _, m := range r.Matches {
		out[m.Rating.Outcome]++
	}
	return out
}

// Engine applies Elo updates.
type Engine struct {
	policy       KPolicy
	initial      float64
	countUnrated bool
	rateForfeits bool
	onConflict   InconsistencyPolicy
	logger       logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKPolicy sets the K policy.
func WithKPolicy(p KPolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithInitialRating sets the rating a new wrestler starts from.
func WithInitialRating(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.initial = r
		}
	}
}

// WithCountUnrated makes byes and loserless forfeits count as matches played.
func WithCountUnrated(v bool) Option {
	return func(e *Engine) { e.countUnrated = v }
}

// WithRateForfeits controls whether forfeits between two named wrestlers
// move ratings. When false they are only counted.
func WithRateForfeits(v bool) Option {
	return func(e *Engine) { e.rateForfeits = v }
}

// WithInconsistencyPolicy sets the out-of-order policy.
func WithInconsistencyPolicy(p InconsistencyPolicy) Option {
	return func(e *Engine) { e.onConflict = p }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine with base K 32, initial rating 1500, forfeits rated,
// unrated matches not counted and the halt policy.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:       NewDecisionPolicy(DefaultK),
		initial:      DefaultInitialRating,
		rateForfeits: true,
		onConflict:   Halt,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// InitialRating returns the configured starting rating.
func (e *Engine) InitialRating() float64 { return e.initial }

// Run rates matches from an empty state.
func (e *Engine) Run(ctx context.Context, matches []model.Match) (*State, Result) {
	st := NewState()
	return st, e.Apply(ctx, st, matches)
}

// Apply rates matches, already in sequence order, on top of st. Applying a
// suffix to the state of a prefix gives the same state as rating the whole
// stream at once. A match id that st has already applied is reported as a
// duplicate and left out of the result.
func (e *Engine) Apply(ctx context.Context, st *State, matches []model.Match) Result {
	res := Result{Matches: make([]model.RatedMatch, 0, len(matches))}
	for _, m := range matches {
		if st.Applied(m.ID) {
			issue := e.issue(m, "", ErrDuplicateMatch)
			issue.Kind = model.IssueDuplicate
			res.Report.Add(*issue)
			e.logger.Warn(ctx, "match already applied", logger.String("match", m.ID))
			continue
		}
		rm, issue := e.apply(st, m)
		res.Matches = append(res.Matches, rm)
		if issue != nil {
			res.Report.Add(*issue)
			e.logger.Warn(ctx, "rating inconsistency",
				logger.String("match", m.ID),
				logger.String("wrestler", issue.Wrestler),
				logger.String("reason", issue.Reason),
				logger.String("outcome", rm.Rating.Outcome.String()))
		}
	}
	return res
}

func (e *Engine) apply(st *State, m model.Match) (model.RatedMatch, *model.Issue) {
	st.seq++
	st.applied[m.ID] = struct{}{}
	rm := model.RatedMatch{Match: m, Rating: model.Rating{Sequence: st.seq}}

	key := sequence.KeyOf(m)
	w := st.get(m.Winner.ID, m.Winner.Name, m.Winner.Team, e.initial)
	var l *WrestlerState
	if m.HasLoser() {
		l = st.get(m.Loser.ID, m.Loser.Name, m.Loser.Team, e.initial)
	}
	rm.Rating.WinnerPre, rm.Rating.WinnerPost = w.Rating, w.Rating
	if l != nil {
		rm.Rating.LoserPre, rm.Rating.LoserPost = l.Rating, l.Rating
	}

	var issue *model.Issue
	for _, ws := range []*WrestlerState{w, l} {
		if ws == nil || issue != nil {
			continue
		}
		switch {
		case ws.Halted:
			issue = e.issue(m, ws.ID, ErrHaltedChain)
		case ws.hasLast && sequence.Compare(key, ws.lastKey) < 0:
			issue = e.issue(m, ws.ID, ErrInconsistentChain)
			if e.onConflict == Halt {
				ws.Halted = true
			}
		}
	}
	if issue != nil {
		if e.onConflict == Halt {
			rm.Rating.Outcome = model.OutcomeHalted
			return rm, issue
		}
		rm.Rating.Warning = issue.Reason
	}

	rm.Rating.Outcome = e.outcome(m)
	if rm.Rating.Outcome == model.OutcomeRated {
		k := e.policy.K(m)
		wPost, lPost, exp := Update(w.Rating, l.Rating, k)
		rm.Rating.K, rm.Rating.Expected = k, exp
		rm.Rating.WinnerPost, rm.Rating.LoserPost = wPost, lPost
		w.Rating, l.Rating = wPost, lPost
		w.observe(wPost, m.Date)
		l.observe(lPost, m.Date)
	}

	e.record(w, l, key, m, rm.Rating.Outcome)
	return rm, issue
}

func (e *Engine) outcome(m model.Match) model.Outcome {
	switch {
	case m.Decision == model.DecisionNoContest:
		return model.OutcomeExcluded
	case !m.HasLoser() || m.Decision == model.DecisionBye:
		if e.countUnrated {
			return model.OutcomeCounted
		}
		return model.OutcomeExcluded
	case m.Decision == model.DecisionForfeit && !e.rateForfeits:
		return model.OutcomeCounted
	}
	return model.OutcomeRated
}

func (e *Engine) record(w, l *WrestlerState, key sequence.Key, m model.Match, o model.Outcome) {
	wLatest := w.advance(key)
	lLatest := l != nil && l.advance(key)
	if !o.Counts() {
		return
	}
	w.Played++
	w.Wins++
	if wLatest {
		w.LastDate = m.Date
	}
	if l == nil {
		return
	}
	if wLatest {
		w.LastOpponent = l.ID
	}
	l.Played++
	l.Losses++
	if lLatest {
		l.LastDate = m.Date
		l.LastOpponent = w.ID
	}
	switch m.Decision {
	case model.DecisionFall:
		w.WinsFall++
		l.LossesFall++
	case model.DecisionDisqualification:
		w.WinsDQ++
	}
}

func (e *Engine) issue(m model.Match, wrestler string, cause error) *model.Issue {
	return &model.Issue{
		Kind:     model.IssueRating,
		EventID:  m.EventID,
		RoundID:  m.RoundID,
		Row:      m.Bout,
		MatchID:  m.ID,
		Wrestler: wrestler,
		Reason:   cause.Error(),
		Raw:      m.Raw,
	}
}
