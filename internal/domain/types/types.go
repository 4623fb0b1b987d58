// Package types contains the tabular rows shared by the exporters, the
// Postgres sink and the read API. Field names are the column names the
// reporting layer binds to.
package types

import (
	"time"

	"github.com/okian/grapple/internal/domain/aggregate"
	"github.com/okian/grapple/internal/domain/model"
)

// Date is a calendar date rendered as YYYY-MM-DD.
type Date time.Time

// NewDate returns nil for the zero time.
func NewDate(t time.Time) *Date {
	if t.IsZero() {
		return nil
	}
	d := Date(t)
	return &d
}

// Time returns the underlying time.
func (d Date) Time() time.Time { return time.Time(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(time.Time(d).Format(time.DateOnly)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	t, err := time.Parse(time.DateOnly, string(b))
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

// Entry is one line of the live rating leaderboard.
type Entry struct {
	Rank       int     `json:"rank"`
	WrestlerID string  `json:"wrestler_id"`
	Name       string  `json:"name"`
	Team       string  `json:"team"`
	Rating     float64 `json:"rating"`
}

// MatchRow is one row of the matches table.
type MatchRow struct {
	MatchID      string   `json:"match_id"`
	EventID      string   `json:"event_id"`
	EventName    string   `json:"event_name"`
	MatchDate    Date     `json:"match_date"`
	RoundID      string   `json:"round_id"`
	RoundLabel   string   `json:"round_label"`
	RoundOrdinal int      `json:"round_ordinal"`
	Bout         int      `json:"bout"`
	WeightClass  string   `json:"weight_class"`
	Bracket      string   `json:"bracket"`
	Decision     string   `json:"decision"`
	ResultCode   string   `json:"result_code"`
	Overtime     bool     `json:"overtime"`
	WinnerID     string   `json:"winner_id"`
	WinnerName   string   `json:"winner_name"`
	WinnerTeam   string   `json:"winner_team"`
	LoserID      *string  `json:"loser_id"`
	LoserName    *string  `json:"loser_name"`
	LoserTeam    *string  `json:"loser_team"`
	WinnerPoints *int     `json:"winner_points"`
	LoserPoints  *int     `json:"loser_points"`
	FallTime     *string  `json:"fall_time"`
	Outcome      string   `json:"outcome"`
	K            *float64 `json:"k"`
	Expected     *float64 `json:"expected"`
	WinnerPre    *float64 `json:"winner_pre"`
	WinnerPost   *float64 `json:"winner_post"`
	LoserPre     *float64 `json:"loser_pre"`
	LoserPost    *float64 `json:"loser_post"`
	Sequence     int      `json:"sequence"`
}

// WrestlerRow is one row of the wrestlers table.
type WrestlerRow struct {
	WrestlerID        string   `json:"wrestler_id"`
	Name              string   `json:"name"`
	Team              string   `json:"team"`
	MatchesPlayed     int      `json:"matches_played"`
	Wins              int      `json:"wins"`
	Losses            int      `json:"losses"`
	WinsFall          int      `json:"wins_fall"`
	LossesFall        int      `json:"losses_fall"`
	WinsDQ            int      `json:"wins_dq"`
	CurrentRating     float64  `json:"current_rating"`
	BestRating        float64  `json:"best_rating"`
	BestRatingDate    *Date    `json:"best_rating_date"`
	LastMatchDate     *Date    `json:"last_match_date"`
	LastOpponent      *string  `json:"last_opponent"`
	AvgOpponentRating *float64 `json:"avg_opponent_rating"`
	Rank              int      `json:"rank"`
	UpsetGain         *float64 `json:"upset_gain"`
	UpsetMatchID      *string  `json:"upset_match_id"`
}

// HistoryRow is one row of the rating_history table.
type HistoryRow struct {
	MatchID           string  `json:"match_id"`
	Sequence          int     `json:"sequence"`
	MatchDate         Date    `json:"match_date"`
	EventID           string  `json:"event_id"`
	EventName         string  `json:"event_name"`
	WrestlerID        string  `json:"wrestler_id"`
	WrestlerName      string  `json:"wrestler_name"`
	Team              string  `json:"team"`
	Role              string  `json:"role"`
	OpponentID        string  `json:"opponent_id"`
	OpponentName      string  `json:"opponent_name"`
	OpponentTeam      string  `json:"opponent_team"`
	Decision          string  `json:"decision"`
	PreRating         float64 `json:"pre_rating"`
	PostRating        float64 `json:"post_rating"`
	RatingChange      float64 `json:"rating_change"`
	OpponentPreRating float64 `json:"opponent_pre_rating"`
}

// HeadToHeadRow is one row of the head_to_head table.
type HeadToHeadRow struct {
	WrestlerID   string  `json:"wrestler_id"`
	OpponentID   string  `json:"opponent_id"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	RatingChange float64 `json:"rating_change"`
}

// IndividualRow is one row of the individual_leaderboard table.
type IndividualRow struct {
	Season            string   `json:"season"`
	WrestlerID        string   `json:"wrestler_id"`
	Name              string   `json:"name"`
	Team              string   `json:"team"`
	MatchesPlayed     int      `json:"matches_played"`
	Wins              int      `json:"wins"`
	Losses            int      `json:"losses"`
	WinsFall          int      `json:"wins_fall"`
	WinPct            float64  `json:"win_pct"`
	FallPct           float64  `json:"fall_pct"`
	HighestRating     float64  `json:"highest_rating"`
	UpsetGain         *float64 `json:"upset_gain"`
	UpsetOpponent     *string  `json:"upset_opponent"`
	UpsetOpponentTeam *string  `json:"upset_opponent_team"`
	UpsetDate         *Date    `json:"upset_date"`
	UpsetEvent        *string  `json:"upset_event"`
	UpsetDecision     *string  `json:"upset_decision"`
}

// TeamRow is one row of the team_leaderboard table.
type TeamRow struct {
	Season        string  `json:"season"`
	Team          string  `json:"team"`
	Wrestlers     int     `json:"wrestlers"`
	MatchesPlayed int     `json:"matches_played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinsFall      int     `json:"wins_fall"`
	WinPct        float64 `json:"win_pct"`
	FallPct       float64 `json:"fall_pct"`
	AvgRating     float64 `json:"avg_rating"`
	BestRating    float64 `json:"best_rating"`
}

func ptr[T any](v T) *T { return &v }

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewMatchRow flattens a rated match. Rating columns are null unless the
// match was rated.
func NewMatchRow(m model.RatedMatch) MatchRow {
	r := MatchRow{
		MatchID:      m.ID,
		EventID:      m.EventID,
		EventName:    m.EventName,
		MatchDate:    Date(m.Date),
		RoundID:      m.RoundID,
		RoundLabel:   m.RoundLabel,
		RoundOrdinal: m.RoundOrdinal,
		Bout:         m.Bout,
		WeightClass:  m.WeightClass,
		Bracket:      m.Bracket,
		Decision:     m.Decision.String(),
		ResultCode:   m.ResultCode,
		Overtime:     m.Overtime,
		WinnerID:     m.Winner.ID,
		WinnerName:   m.Winner.Name,
		WinnerTeam:   m.Winner.Team,
		WinnerPoints: m.WinnerPoints,
		LoserPoints:  m.LoserPoints,
		FallTime:     nonEmpty(m.FallTime),
		Outcome:      m.Rating.Outcome.String(),
		Sequence:     m.Rating.Sequence,
	}
	if m.HasLoser() {
		r.LoserID, r.LoserName, r.LoserTeam = ptr(m.Loser.ID), ptr(m.Loser.Name), ptr(m.Loser.Team)
	}
	if m.Rating.Outcome == model.OutcomeRated {
		r.K, r.Expected = ptr(m.Rating.K), ptr(m.Rating.Expected)
		r.WinnerPre, r.WinnerPost = ptr(m.Rating.WinnerPre), ptr(m.Rating.WinnerPost)
		r.LoserPre, r.LoserPost = ptr(m.Rating.LoserPre), ptr(m.Rating.LoserPost)
	}
	return r
}

// NewWrestlerRow flattens a wrestler summary.
func NewWrestlerRow(w aggregate.WrestlerSummary) WrestlerRow {
	r := WrestlerRow{
		WrestlerID:     w.ID,
		Name:           w.Name,
		Team:           w.Team,
		MatchesPlayed:  w.Played,
		Wins:           w.Wins,
		Losses:         w.Losses,
		WinsFall:       w.WinsFall,
		LossesFall:     w.LossesFall,
		WinsDQ:         w.WinsDQ,
		CurrentRating:  w.Rating,
		BestRating:     w.Best,
		BestRatingDate: NewDate(w.BestDate),
		LastMatchDate:  NewDate(w.LastDate),
		LastOpponent:   nonEmpty(w.LastOpponent),
		Rank:           w.Rank,
	}
	if w.Opponents > 0 {
		r.AvgOpponentRating = ptr(w.AvgOpponent)
	}
	if w.Upset != nil {
		r.UpsetGain, r.UpsetMatchID = ptr(w.Upset.Gain), ptr(w.Upset.MatchID)
	}
	return r
}

// NewHistoryRow flattens one side of a rated match.
func NewHistoryRow(h aggregate.HistoryEntry) HistoryRow {
	return HistoryRow{
		MatchID:           h.MatchID,
		Sequence:          h.Sequence,
		MatchDate:         Date(h.Date),
		EventID:           h.EventID,
		EventName:         h.EventName,
		WrestlerID:        h.WrestlerID,
		WrestlerName:      h.WrestlerName,
		Team:              h.Team,
		Role:              h.Role,
		OpponentID:        h.OpponentID,
		OpponentName:      h.OpponentName,
		OpponentTeam:      h.OpponentTeam,
		Decision:          h.Decision,
		PreRating:         h.Pre,
		PostRating:        h.Post,
		RatingChange:      h.Change(),
		OpponentPreRating: h.OpponentPre,
	}
}

// NewIndividualRow flattens a season leaderboard line.
func NewIndividualRow(i aggregate.IndividualRow) IndividualRow {
	r := IndividualRow{
		Season:        i.Season,
		WrestlerID:    i.ID,
		Name:          i.Name,
		Team:          i.Team,
		MatchesPlayed: i.Played,
		Wins:          i.Wins,
		Losses:        i.Losses,
		WinsFall:      i.WinsFall,
		WinPct:        i.WinPct(),
		FallPct:       i.FallPct(),
		HighestRating: i.Highest,
	}
	if u := i.Upset; u != nil {
		r.UpsetGain = ptr(u.Gain)
		r.UpsetOpponent = ptr(u.OpponentName)
		r.UpsetOpponentTeam = ptr(u.OpponentTeam)
		r.UpsetDate = NewDate(u.Date)
		r.UpsetEvent = ptr(u.EventName)
		r.UpsetDecision = ptr(u.Decision)
	}
	return r
}

// NewTeamRow flattens a team leaderboard line.
func NewTeamRow(t aggregate.TeamRow) TeamRow {
	return TeamRow{
		Season:        t.Season,
		Team:          t.Team,
		Wrestlers:     t.Wrestlers,
		MatchesPlayed: t.Played,
		Wins:          t.Wins,
		Losses:        t.Losses,
		WinsFall:      t.WinsFall,
		WinPct:        t.WinPct(),
		FallPct:       t.FallPct(),
		AvgRating:     t.AvgRating,
		BestRating:    t.Best,
	}
}
