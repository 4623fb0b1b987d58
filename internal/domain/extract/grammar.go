package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/grapple/internal/domain/model"
)

var (
	errNoVerb     = errors.New("no result verb")
	errNoOpponent = errors.New("result phrase without opponent")
	errWinner     = errors.New("winner unresolved")
	errLoser      = errors.New("loser unresolved")

	doubleRe = regexp.MustCompile(`(?i)^(.+?)\s+and\s+(.+?)\s*\(?\b(DFF|DDQ)\b\)?$`)

	bracketWords = []string{
		"round", "place", "champ", "semi", "quarter", "final", "cons", "prelim", "pigtail", "wrestleback", "bracket",
	}
)

// bout is the parsed content of one bout row.
type bout struct {
	bracket  string
	decision model.DecisionType
	code     string
	overtime bool
	winner   side
	loser    *side
	tail     tail
	skip     string // set when the row is explicitly not a match
}

// parseBout runs the grammar cascade over one bout's text.
func parseBout(text string) (bout, error) {
	var b bout
	rest := strings.TrimSpace(text)
	if i := strings.Index(rest, " - "); i > 0 && isBracketLabel(rest[:i]) {
		b.bracket = strings.TrimSpace(rest[:i])
		rest = strings.TrimSpace(rest[i+3:])
	}
	lower := foldASCII(rest)

	if lower == "double forfeit" {
		b.skip = "double forfeit without participants"
		return b, nil
	}

	if m := doubleRe.FindStringSubmatch(rest); m != nil {
		a, _, errA := splitParticipant(m[1])
		c, _, errC := splitParticipant(m[2])
		if errA == nil && errC == nil {
			b.decision, b.code = model.DecisionNoContest, strings.ToUpper(m[3])
			b.winner, b.loser = a, &c
			return b, nil
		}
	}

	if i := strings.Index(lower, " received a bye"); i > 0 {
		w, _, err := splitParticipant(rest[:i])
		if err != nil {
			return b, fmt.Errorf("%w: %w", errWinner, err)
		}
		b.decision, b.code, b.winner = model.DecisionBye, "Bye", w
		return b, nil
	}

	for _, sep := range []string{" vs. ", " vs "} {
		if i := strings.Index(lower, sep); i > 0 {
			w, _, errW := splitParticipant(rest[:i])
			l, _, errL := splitParticipant(rest[i+len(sep):])
			if errW == nil && errL == nil {
				b.decision, b.code = model.DecisionNoContest, "vs"
				b.winner, b.loser = w, &l
				return b, nil
			}
		}
	}

	head, phrase, code, after, err := splitVerb(rest, lower)
	if err != nil {
		return b, err
	}

	w, wrest, err := splitParticipant(head)
	if err != nil || w.name == "" || wrest != "" {
		return b, fmt.Errorf("%w: %q", errWinner, head)
	}
	l, lrest, err := splitParticipant(after)
	if err != nil {
		return b, fmt.Errorf("%w: %q", errLoser, after)
	}

	b.winner = w
	b.tail = parseTail(lrest)
	b.code = code
	if b.code == "" {
		b.code = b.tail.code
	}
	b.decision, b.overtime = Classify(phrase, b.code, b.tail.detail)
	if code != "" && b.tail.code != "" && b.decision == model.DecisionUnknown {
		b.decision, b.overtime = Classify(phrase, b.tail.code, b.tail.detail)
	}

	if l.name != "" {
		b.loser = &l
	}
	return b, nil
}

// splitVerb locates the result verb and returns the winner text, the
// decision phrase, a code printed inside the verb ("won in SV-1 by fall")
// and the text after "over".
func splitVerb(rest, lower string) (head, phrase, code, after string, err error) {
	over := func(from int) (int, error) {
		j := strings.Index(lower[from:], " over ")
		if j < 0 {
			return 0, errNoOpponent
		}
		return from + j, nil
	}

	switch {
	case strings.Contains(lower, " won by "):
		i := strings.Index(lower, " won by ")
		j, err := over(i + len(" won by "))
		if err != nil {
			return "", "", "", "", err
		}
		return rest[:i], rest[i+len(" won by ") : j], "", rest[j+len(" over "):], nil

	case strings.Contains(lower, " won in "):
		i := strings.Index(lower, " won in ")
		j, err := over(i + len(" won in "))
		if err != nil {
			return "", "", "", "", err
		}
		inner := rest[i+len(" won in ") : j]
		if k := strings.Index(foldASCII(inner), " by "); k >= 0 {
			code, phrase = strings.TrimSpace(inner[:k]), inner[k+len(" by "):]
		} else {
			phrase = inner
		}
		return rest[:i], phrase, code, rest[j+len(" over "):], nil

	case strings.Contains(lower, " won over "):
		i := strings.Index(lower, " won over ")
		return rest[:i], "", "", rest[i+len(" won over "):], nil

	case strings.Contains(lower, " over "):
		i := strings.Index(lower, " over ")
		return rest[:i], "", "", rest[i+len(" over "):], nil
	}
	return "", "", "", "", errNoVerb
}

// foldASCII lowercases A-Z only, so offsets into the result are valid
// offsets into s whatever else s holds.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func isBracketLabel(s string) bool {
	if strings.ContainsAny(s, "()") {
		return false
	}
	l := strings.ToLower(s)
	for _, w := range bracketWords {
		if strings.Contains(l, w) {
			return true
		}
	}
	return false
}
