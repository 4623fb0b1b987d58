package aggregate

import "time"

// Upset is a winner's largest rating gain with the context of the match.
type Upset struct {
	Gain         float64
	MatchID      string
	Date         time.Time
	EventID      string
	EventName    string
	OpponentID   string
	OpponentName string
	OpponentTeam string
	Decision     string
	ResultCode   string
}

// HistoryEntry is one wrestler's side of one rated match.
type HistoryEntry struct {
	MatchID      string
	Sequence     int
	Date         time.Time
	EventID      string
	EventName    string
	WrestlerID   string
	WrestlerName string
	Team         string
	Role         string // "W" or "L"
	OpponentID   string
	OpponentName string
	OpponentTeam string
	Decision     string
	Pre          float64
	Post         float64
	OpponentPre  float64
}

// Change is the rating movement of this side.
func (h HistoryEntry) Change() float64 { return h.Post - h.Pre }

// WrestlerSummary is a wrestler's career view.
type WrestlerSummary struct {
	ID         string
	Name       string
	Team       string
	Played     int
	Wins       int
	Losses     int
	WinsFall   int
	LossesFall int
	WinsDQ     int

	Rating       float64
	Best         float64
	BestDate     time.Time
	LastDate     time.Time
	LastOpponent string

	// AvgOpponent is the mean pre-match rating of rated opponents; zero
	// when Opponents is zero.
	AvgOpponent float64
	Opponents   int

	Rank  int
	Upset *Upset
}

// HeadToHead is one wrestler's record against one opponent.
type HeadToHead struct {
	WrestlerID   string
	OpponentID   string
	Wins         int
	Losses       int
	RatingChange float64
}

// IndividualRow is one leaderboard line for a wrestler in a season.
type IndividualRow struct {
	Season   string
	ID       string
	Name     string
	Team     string
	Played   int
	Wins     int
	Losses   int
	WinsFall int
	Highest  float64
	Upset    *Upset
	rating   float64
}

// WinPct is wins per match played, in percent.
func (r IndividualRow) WinPct() float64 { return pct(r.Wins, r.Played) }

// FallPct is falls per win, in percent.
func (r IndividualRow) FallPct() float64 { return pct(r.WinsFall, r.Wins) }

// TeamRow is one leaderboard line for a team in a season.
type TeamRow struct {
	Season    string
	Team      string
	Wrestlers int
	Played    int
	Wins      int
	Losses    int
	WinsFall  int
	AvgRating float64
	Best      float64
}

// WinPct is wins per match played, in percent.
func (r TeamRow) WinPct() float64 { return pct(r.Wins, r.Played) }

// FallPct is falls per win, in percent.
func (r TeamRow) FallPct() float64 { return pct(r.WinsFall, r.Wins) }

func pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

// Result holds every derived table.
type Result struct {
	Wrestlers   []WrestlerSummary
	History     []HistoryEntry
	HeadToHead  []HeadToHead
	Individuals []IndividualRow
	Teams       []TeamRow
}
