// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// DecisionType is the closed set of ways a bout can end.
type DecisionType uint8

const (
	DecisionUnknown DecisionType = iota
	DecisionFall
	DecisionTechFall
	DecisionMajor
	DecisionDecision
	DecisionDefault
	DecisionDisqualification
	DecisionForfeit
	DecisionBye
	// DecisionNoContest covers double forfeits, double disqualifications and
	// scheduled bouts that were never wrestled.
	DecisionNoContest
)

var decisionNames = [...]string{
	DecisionUnknown:          "unknown",
	DecisionFall:             "fall",
	DecisionTechFall:         "tech_fall",
	DecisionMajor:            "major_decision",
	DecisionDecision:         "decision",
	DecisionDefault:          "default",
	DecisionDisqualification: "disqualification",
	DecisionForfeit:          "forfeit",
	DecisionBye:              "bye",
	DecisionNoContest:        "no_contest",
}

// DecisionTypes lists every decision type in declaration order.
func DecisionTypes() []DecisionType {
	out := make([]DecisionType, len(decisionNames))
	for i := range decisionNames {
		out[i] = DecisionType(i)
	}
	return out
}

func (d DecisionType) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return decisionNames[DecisionUnknown]
}

// ParseDecisionType maps a canonical name back to its DecisionType.
// Dashes and spaces are accepted in place of underscores.
func ParseDecisionType(s string) (DecisionType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for _, d := range DecisionTypes() {
		if d.String() == key {
			return d, nil
		}
	}
	switch key {
	case "major", "md":
		return DecisionMajor, nil
	case "techfall", "tf":
		return DecisionTechFall, nil
	case "dq":
		return DecisionDisqualification, nil
	}
	return DecisionUnknown, fmt.Errorf("%w: %q", ErrUnknownDecision, s)
}

// MarshalText implements encoding.TextMarshaler.
func (d DecisionType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DecisionType) UnmarshalText(b []byte) error {
	v, err := ParseDecisionType(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Unrated reports whether the decision type can never move a rating.
func (d DecisionType) Unrated() bool {
	return d == DecisionBye || d == DecisionNoContest
}
