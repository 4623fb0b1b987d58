// Package extract maps normalized bout rows to canonical matches.
//
// Every row yields exactly one of: a match (including bye, forfeit and
// no-contest variants), an explicitly skipped row, or a reported issue.
// Free-text result codes are converted to model.DecisionType here and never
// travel further.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/pkg/logger"
)

// Result is the outcome of extracting one round document.
type Result struct {
	Matches []model.Match
	Report  model.Report
}

// Extractor turns rows into matches. It is safe for concurrent use.
type Extractor struct {
	logger      logger.Logger
	nameAliases map[string]string
	teamAliases map[string]string
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger:      logger.Nop(),
		nameAliases: make(map[string]string),
		teamAliases: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract converts the rows of doc. Problems are reported, never returned.
func (e *Extractor) Extract(ctx context.Context, doc model.RoundDocument, rows []model.Row) Result {
	res := Result{Report: model.Report{Documents: 1, SourceRows: len(rows)}}

	for _, row := range rows {
		issue := model.Issue{EventID: doc.EventID, RoundID: doc.RoundID, Row: row.Index, Raw: row.Text}
		switch row.Kind {
		case model.RowSkipped:
			res.Report.Skipped++
			continue
		case model.RowUnparsed:
			issue.Kind, issue.Reason = model.IssueUnparsed, row.Reason
			if issue.Raw == "" {
				issue.Raw = row.Raw
			}
			res.Report.Add(issue)
			continue
		}

		b, err := parseBout(row.Text)
		if err != nil {
			issue.Kind, issue.Reason = model.IssueExtraction, err.Error()
			res.Report.Add(issue)
			e.logger.Debug(ctx, "bout not extracted",
				logger.String("event_id", doc.EventID), logger.Int("row", row.Index), logger.Error(err))
			continue
		}
		if b.skip != "" {
			res.Report.Skipped++
			continue
		}

		m, ok := e.build(doc, row, b)
		if !ok {
			issue.Kind, issue.Reason = model.IssueExtraction, "no identifiable participant"
			res.Report.Add(issue)
			continue
		}
		res.Matches = append(res.Matches, m)
		res.Report.Matches++
	}

	if n := res.Report.Count(model.IssueExtraction) + res.Report.Count(model.IssueUnparsed); n > 0 {
		e.logger.Info(ctx, "round extracted with issues",
			logger.String("event_id", doc.EventID),
			logger.String("round_id", doc.RoundID),
			logger.Int("matches", res.Report.Matches),
			logger.Int("issues", n))
	}
	return res
}

func (e *Extractor) build(doc model.RoundDocument, row model.Row, b bout) (model.Match, bool) {
	winner := e.participant(b.winner)
	var loser *model.Participant
	if b.loser != nil {
		if p := e.participant(*b.loser); p.ID != "" {
			loser = &p
		}
	}

	decision := b.decision
	switch {
	case isPlaceholder(winner) && loser != nil:
		winner, loser, decision = *loser, nil, model.DecisionBye
	case loser != nil && isPlaceholder(*loser):
		loser, decision = nil, model.DecisionBye
	case winner.ID != "" && loser == nil && !decision.Unrated():
		// one named wrestler and an empty opponent: a forfeit
		decision = model.DecisionForfeit
	}
	if winner.ID == "" {
		return model.Match{}, false
	}
	if decision == model.DecisionNoContest && loser == nil {
		return model.Match{}, false
	}

	m := model.Match{
		ID:           fmt.Sprintf("%s/%s/%d", doc.EventID, doc.RoundID, row.Index+1),
		EventID:      doc.EventID,
		EventName:    doc.EventName,
		Date:         doc.Date,
		RoundID:      doc.RoundID,
		RoundLabel:   doc.RoundLabel,
		RoundOrdinal: doc.RoundOrdinal,
		Bout:         row.Index + 1,
		WeightClass:  row.WeightClass,
		Bracket:      b.bracket,
		Decision:     decision,
		ResultCode:   b.code,
		Overtime:     b.overtime,
		Winner:       winner,
		Loser:        loser,
		Raw:          row.Text,
	}
	if m.Contested() {
		m.WinnerPoints, m.LoserPoints = b.tail.winnerPts, b.tail.loserPts
		if decision == model.DecisionFall || decision == model.DecisionTechFall {
			m.FallTime = b.tail.fallTime
		}
	}
	if m.ResultCode == "" && decision == model.DecisionForfeit {
		m.ResultCode = "For."
	}
	return m, true
}

func (e *Extractor) participant(s side) model.Participant {
	name := NormalizeName(s.name)
	if alias, ok := e.nameAliases[model.WrestlerKey(name)]; ok {
		name = alias
	}
	team := NormalizeTeam(s.team)
	if alias, ok := e.teamAliases[model.WrestlerKey(team)]; ok {
		team = alias
	}
	return model.NewParticipant(name, team)
}

// isPlaceholder matches the "Unknown (Unattached)" stand-in opponent.
func isPlaceholder(p model.Participant) bool {
	return p.ID == "unknown" && strings.EqualFold(p.Team, "unattached")
}
