package sequence

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	emptyRoundOrder   = 50
	unknownRoundOrder = 60
)

// roundOrder is checked in order; the first label fragment found wins, so
// "quarterfinal" resolves before "final" and "semifinal" before "final".
var roundOrder = []struct {
	fragment string
	order    int
}{
	{"pigtail", 5},
	{"prelim", 10},
	{"quarter", 80},
	{"consolation", 85},
	{"semi", 90},
	{"final", 100},
	{"championship", 100},
	{"placement", 110},
	{"place", 110},
}

var roundNumberRe = regexp.MustCompile(`\b(?:r|round)\s*(\d+)\b`)

// RoundOrder maps a round label to an ordinal so earlier rounds of an event
// sort first. Numbered rounds map to 10+10n; an empty label is 50 and an
// unrecognised one 60.
func RoundOrder(label string) int {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return emptyRoundOrder
	}
	for _, r := range roundOrder {
		if strings.Contains(s, r.fragment) {
			return r.order
		}
	}
	if m := roundNumberRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return 10 + n*10
		}
	}
	return unknownRoundOrder
}
