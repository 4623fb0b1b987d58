package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/grapple/internal/domain/model"
)

var (
	scoreRe = regexp.MustCompile(`(?:^|\s)(\d+)-(\d+)(?:\s|$)`)
	timeRe  = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)

	// SV-1, TB-2, UTB, OT, 2-OT, RT (riding time)
	overtimeRe = regexp.MustCompile(`^(?:(?:SV|TB|UTB)(?:-?\d+)?|(?:\d+-)?OT|RT)$`)

	fallCodes     = set("FALL", "PIN", "F")
	majorCodes    = set("MD", "MAJ")
	forfeitCodes  = set("FOR", "FF", "FORF", "MFOR", "FORFEIT", "FFT")
	defaultCodes  = set("DEF", "INJ", "MDEF", "INJDEF")
	decisionCodes = set("DEC", "D")

	overtimePhrases = []string{
		"sudden victory", "overtime", "over time", "tiebreaker", "tie breaker", "tie-breaker", "riding time", "ultimate",
	}
)

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// codeKey canonicalises a printed result code: "M. For." -> "MFOR".
func codeKey(code string) string {
	return strings.ToUpper(strings.NewReplacer(" ", "", ".", "").Replace(strings.TrimSpace(code)))
}

func overtimeCode(key string) bool {
	return overtimeRe.MatchString(key)
}

// Classify maps the free-text decision phrase ("won by major decision"),
// the printed code ("MD") and any parenthetical detail ("(Fall)") to a
// decision type. Overtime reports a sudden victory or tiebreaker finish.
// Unrecognised input yields model.DecisionUnknown.
func Classify(phrase, code, detail string) (decision model.DecisionType, overtime bool) {
	text := strings.ToLower(strings.Join(strings.Fields(phrase+" "+detail), " "))
	key, dkey := codeKey(code), codeKey(detail)

	overtime = overtimeCode(key) || overtimeCode(dkey)
	for _, p := range overtimePhrases {
		if strings.Contains(text, p) {
			overtime = true
		}
	}

	switch {
	case strings.Contains(text, "bye") || key == "BYE":
		return model.DecisionBye, false
	case key == "DFF" || key == "DDQ" || strings.Contains(text, "double forfeit") || strings.Contains(text, "double disqualification"):
		return model.DecisionNoContest, false
	case strings.Contains(text, "tech") || strings.HasPrefix(key, "TF") || strings.HasPrefix(dkey, "TF"):
		return model.DecisionTechFall, overtime
	case strings.Contains(text, "fall") || in(fallCodes, key) || in(fallCodes, dkey):
		return model.DecisionFall, overtime
	case strings.Contains(text, "major") || in(majorCodes, key) || in(majorCodes, dkey):
		return model.DecisionMajor, overtime
	case strings.Contains(text, "forfeit") || strings.Contains(text, "forfiet") || in(forfeitCodes, key):
		return model.DecisionForfeit, false
	case strings.Contains(text, "default") || strings.Contains(text, "injury") || in(defaultCodes, key):
		return model.DecisionDefault, false
	case strings.Contains(text, "disqualif") || key == "DQ":
		return model.DecisionDisqualification, false
	case overtime:
		return model.DecisionDecision, true
	case strings.Contains(text, "decision") || in(decisionCodes, key) || in(decisionCodes, dkey):
		return model.DecisionDecision, false
	default:
		return model.DecisionUnknown, false
	}
}

// startsWithResult reports whether s begins with a result code, score or time.
func startsWithResult(s string) bool {
	tok := strings.Fields(s)
	if len(tok) == 0 {
		return false
	}
	first := tok[0]
	if timeRe.MatchString(first) || scoreRe.MatchString(first) {
		return true
	}
	if d, ot := Classify("", first, ""); d != model.DecisionUnknown || ot {
		return true
	}
	return false
}

type tail struct {
	code      string
	detail    string
	winnerPts *int
	loserPts  *int
	fallTime  string
}

// parseTail reads the result notation that follows the loser, e.g.
// "(Dec 4-0)", "Fall 3:34", "(TF-1.5 5:20 (16-0))", "TB-2 (Fall) 0:00".
func parseTail(s string) tail {
	var t tail
	inner := strings.TrimSpace(s)
	if g := parenGroups(inner); len(g) > 0 && g[0].start == 0 && g[0].end == len(inner) {
		inner = strings.TrimSpace(inner[1 : len(inner)-1])
	}

	stripped := inner
	for _, g := range reverse(parenGroups(inner)) {
		content := strings.TrimSpace(inner[g.start+1 : g.end-1])
		if m := scoreRe.FindStringSubmatch(content); m != nil && strings.TrimSpace(m[0]) == content {
			t.winnerPts, t.loserPts = atoi(m[1]), atoi(m[2])
		} else if content != "" {
			t.detail = content
		}
		stripped = stripped[:g.start] + " " + stripped[g.end:]
	}

	t.fallTime = timeRe.FindString(stripped)
	if m := scoreRe.FindStringSubmatch(stripped); m != nil && t.winnerPts == nil {
		t.winnerPts, t.loserPts = atoi(m[1]), atoi(m[2])
	}
	code := timeRe.ReplaceAllString(stripped, " ")
	code = scoreRe.ReplaceAllString(code, " ")
	t.code = strings.Join(strings.Fields(code), " ")
	return t
}

func atoi(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
