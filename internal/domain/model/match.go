package model

import (
	"strings"
	"time"
)

// Participant is one side of a bout as it appeared in the source.
type Participant struct {
	ID   string // wrestler identity key, see WrestlerKey
	Name string
	Team string
}

// NewParticipant builds a participant whose ID is derived from name.
func NewParticipant(name, team string) Participant {
	return Participant{ID: WrestlerKey(name), Name: name, Team: team}
}

// WrestlerKey normalizes a display name into an identity key.
func WrestlerKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Match is one extracted bout. Matches are immutable once extracted.
type Match struct {
	ID           string // event/round/bout
	EventID      string
	EventName    string
	Date         time.Time // date-only, UTC midnight
	RoundID      string
	RoundLabel   string
	RoundOrdinal int
	Bout         int // position of the bout row in its round document
	WeightClass  string
	Bracket      string // "Champ. Round 1", "Cons. Semi", ... when present

	Decision   DecisionType
	ResultCode string // code as printed, kept for display only
	Overtime   bool   // decided in sudden victory or a tiebreaker

	Winner Participant
	Loser  *Participant // nil for byes and loserless forfeits

	WinnerPoints *int
	LoserPoints  *int
	FallTime     string

	Raw string
}

// HasLoser reports whether the match names a second wrestler.
func (m Match) HasLoser() bool {
	return m.Loser != nil && m.Loser.ID != ""
}

// Contested reports whether the match has two named wrestlers and a result
// that can move ratings.
func (m Match) Contested() bool {
	return m.HasLoser() && !m.Decision.Unrated()
}

// Outcome tells what the rating engine did with a match.
type Outcome uint8

const (
	// OutcomeRated: ratings moved.
	OutcomeRated Outcome = iota
	// OutcomeCounted: no rating change, but the match counts toward records.
	OutcomeCounted
	// OutcomeExcluded: no rating change and not counted.
	OutcomeExcluded
	// OutcomeHalted: refused because a participant's chain is inconsistent.
	OutcomeHalted
)

var outcomeNames = [...]string{
	OutcomeRated:    "rated",
	OutcomeCounted:  "counted",
	OutcomeExcluded: "excluded",
	OutcomeHalted:   "halted",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	for i, name := range outcomeNames {
		if name == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return ErrUnknownOutcome
}

// Counts reports whether the match contributes to win/loss records.
func (o Outcome) Counts() bool {
	return o == OutcomeRated || o == OutcomeCounted
}

// Rating holds what the engine assigned to one match. Pre and post values
// are only meaningful when Outcome is OutcomeRated; for other outcomes they
// carry the unchanged current ratings.
type Rating struct {
	Sequence   int
	Outcome    Outcome
	K          float64
	Expected   float64
	WinnerPre  float64
	WinnerPost float64
	LoserPre   float64
	LoserPost  float64
	Warning    string
}

// RatedMatch is a match paired with its engine assignment.
type RatedMatch struct {
	Match
	Rating Rating
}

// WinnerDelta is the rating points gained by the winner.
func (r RatedMatch) WinnerDelta() float64 {
	if r.Rating.Outcome != OutcomeRated {
		return 0
	}
	return r.Rating.WinnerPost - r.Rating.WinnerPre
}

// LoserDelta is the rating points lost by the loser (negative or zero).
func (r RatedMatch) LoserDelta() float64 {
	if r.Rating.Outcome != OutcomeRated {
		return 0
	}
	return r.Rating.LoserPost - r.Rating.LoserPre
}
