package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	digitsRe      = regexp.MustCompile(`\d+`)
	placeholderRe = regexp.MustCompile(`(?i)-\s*(?:forfeit|forfiet|bye|dff|ddq|unknown)\b`)
	recordRe      = regexp.MustCompile(`^\d+-\d+\b`)

	errNoTeam = errors.New("no team in parentheses")
)

type side struct {
	name string
	team string
}

type span struct{ start, end int } // end is exclusive and includes ')'

// parenGroups returns the top-level balanced parenthetical groups of s.
// An unbalanced '(' stops the scan.
func parenGroups(s string) []span {
	var out []span
	depth, start := 0, -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, span{start: start, end: i + 1})
			}
		}
	}
	return out
}

// splitParticipant splits "Name (Team) [W-L] <rest>" and returns rest.
// The team is the first parenthetical followed by nothing, a record, another
// parenthetical or a result code; earlier groups are nicknames. When none
// qualifies the last group is used.
func splitParticipant(text string) (side, string, error) {
	text = strings.TrimSpace(text)
	groups := parenGroups(text)
	if len(groups) == 0 {
		return side{}, "", errNoTeam
	}
	chosen := len(groups) - 1
	for i, g := range groups {
		after := strings.TrimSpace(text[g.end:])
		if after == "" || recordRe.MatchString(after) || strings.HasPrefix(after, "(") || startsWithResult(after) {
			chosen = i
			break
		}
	}
	g := groups[chosen]
	s := side{
		name: strings.TrimSpace(text[:g.start]),
		team: strings.TrimSpace(text[g.start+1 : g.end-1]),
	}
	rest := strings.TrimSpace(text[g.end:])
	if rec := recordRe.FindString(rest); rec != "" {
		rest = strings.TrimSpace(rest[len(rec):])
	}
	return s, rest, nil
}

// MergeTokens reassembles names whose hyphen was split into its own token:
// a token starting with '-' joins the previous token, and a token following
// one that ends with '-' joins it. ["Cam","Cook","-Cash"] -> ["Cam","Cook-Cash"].
func MergeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if n := len(out); n > 0 && (strings.HasPrefix(t, "-") || strings.HasSuffix(out[n-1], "-")) {
			out[n-1] += t
			continue
		}
		out = append(out, t)
	}
	return out
}

// NormalizeName cleans a raw wrestler name: nicknames in parentheses,
// placeholder suffixes and digits are removed, split hyphens are merged and
// uniformly cased tokens are title-cased.
func NormalizeName(raw string) string {
	s := raw
	for _, g := range reverse(parenGroups(s)) {
		s = s[:g.start] + " " + s[g.end:]
	}
	s = placeholderRe.ReplaceAllString(s, "")
	s = digitsRe.ReplaceAllString(s, "")
	tokens := MergeTokens(strings.Fields(s))
	for i, t := range tokens {
		tokens[i] = titleToken(t)
	}
	return strings.Join(tokens, " ")
}

// NormalizeTeam collapses whitespace in a team name.
func NormalizeTeam(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func reverse(in []span) []span {
	out := make([]span, len(in))
	for i, g := range in {
		out[len(in)-1-i] = g
	}
	return out
}

// titleToken title-cases t when it is entirely lower or upper case, leaving
// deliberate mixed case such as "McNeil" untouched.
func titleToken(t string) string {
	hasLower, hasUpper := false, false
	for _, r := range t {
		hasLower = hasLower || unicode.IsLower(r)
		hasUpper = hasUpper || unicode.IsUpper(r)
	}
	if hasLower && hasUpper {
		return t
	}
	var b strings.Builder
	prevLetter := false
	for _, r := range t {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
