// Package normalize turns one round's raw result markup into ordered rows.
//
// Two layouts are recognised: dual meet tables (table.tw-table, weight class
// in the first cell and the bout in the second) and tournament lists
// (section.tw-list, an <h2> weight class followed by <ul><li> bouts). Every
// source row maps to exactly one model.Row; rows that cannot be interpreted
// are emitted as model.RowUnparsed rather than dropped.
package normalize

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/pkg/logger"
)

const (
	reasonHeader       = "header row"
	reasonNoWeight     = "no weight class"
	reasonMatchSummary = "match summary row"
	reasonAdmin        = "administrative row"
	reasonEmpty        = "empty bout"
	reasonTeamScore    = "team score"
	reasonOrphanBout   = "bout outside a weight class"
	reasonLayout       = "unrecognized layout"
	reasonMarkup       = "unreadable markup"

	maxRawLen = 2048
)

var teamScore = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

var defaultSkipKeywords = []string{
	"unsportsmanlike", "unsport", "misconduct", "correction", "bench", "penalty", "deduction",
}

// Normalizer converts round documents into rows. It is safe for concurrent use.
type Normalizer struct {
	logger       logger.Logger
	skipKeywords []string
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:       logger.Nop(),
		skipKeywords: append([]string(nil), defaultSkipKeywords...),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize parses doc.Body. It never fails: problems become unparsed rows.
func (n *Normalizer) Normalize(ctx context.Context, doc model.RoundDocument) []model.Row {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Body))
	if err != nil {
		n.logger.Warn(ctx, "round markup unreadable",
			logger.String("event_id", doc.EventID), logger.String("round_id", doc.RoundID), logger.Error(err))
		return []model.Row{{Kind: model.RowUnparsed, Reason: reasonMarkup, Raw: clip(doc.Body)}}
	}

	var rows []model.Row
	add := func(r model.Row) {
		r.Index = len(rows)
		rows = append(rows, r)
	}

	tables := parsed.Find("table.tw-table")
	tables.Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			add(n.tableRow(tr))
		})
	})

	lists := parsed.Find("section.tw-list")
	lists.Each(func(_ int, section *goquery.Selection) {
		n.listRows(section, add)
	})

	if tables.Length() == 0 && lists.Length() == 0 {
		if body := textOf(parsed.Selection); body != "" {
			add(model.Row{Kind: model.RowUnparsed, Reason: reasonLayout, Text: clip(body), Raw: clip(doc.Body)})
		}
	}

	n.logger.Debug(ctx, "round normalized",
		logger.String("event_id", doc.EventID),
		logger.String("round_id", doc.RoundID),
		logger.Int("rows", len(rows)))
	return rows
}

func (n *Normalizer) tableRow(tr *goquery.Selection) model.Row {
	raw, _ := goquery.OuterHtml(tr)
	row := model.Row{Raw: clip(raw)}

	cells := tr.ChildrenFiltered("td")
	if cells.Length() < 2 {
		row.Kind, row.Reason = model.RowSkipped, reasonHeader
		row.Text = textOf(tr)
		return row
	}

	weightCell := cells.Eq(0)
	weight := textOf(weightCell.Find("a").First())
	if weight == "" {
		weight = textOf(weightCell)
	}
	row.WeightClass = weight
	row.Text = textOf(cells.Eq(1))

	lw := strings.ToLower(weight)
	switch {
	case weight == "":
		row.Kind, row.Reason = model.RowSkipped, reasonNoWeight
	case lw == "match summary":
		row.Kind, row.Reason = model.RowSkipped, reasonMatchSummary
	case n.administrative(lw):
		row.Kind, row.Reason = model.RowSkipped, reasonAdmin
	default:
		row.Kind, row.Reason = n.classifyBout(row.Text)
	}
	return row
}

func (n *Normalizer) listRows(section *goquery.Selection, add func(model.Row)) {
	weight := ""
	section.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "h2":
			weight = textOf(child)
		case "ul":
			items := child.ChildrenFiltered("li")
			if items.Length() == 0 {
				items = child.Find("li")
			}
			items.Each(func(_ int, li *goquery.Selection) {
				raw, _ := goquery.OuterHtml(li)
				row := model.Row{WeightClass: weight, Text: textOf(li), Raw: clip(raw)}
				if weight == "" {
					row.Kind, row.Reason = model.RowUnparsed, reasonOrphanBout
				} else {
					row.Kind, row.Reason = n.classifyBout(row.Text)
				}
				add(row)
			})
		}
	})
}

func (n *Normalizer) classifyBout(text string) (model.RowKind, string) {
	switch {
	case text == "":
		return model.RowSkipped, reasonEmpty
	case teamScore.MatchString(text):
		return model.RowSkipped, reasonTeamScore
	default:
		return model.RowBout, ""
	}
}

func (n *Normalizer) administrative(weight string) bool {
	for _, k := range n.skipKeywords {
		if strings.Contains(weight, k) {
			return true
		}
	}
	return false
}

// textOf joins every text node under s with single spaces.
func textOf(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
			return
		}
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range s.Nodes {
		walk(node)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func clip(s string) string {
	if len(s) <= maxRawLen {
		return s
	}
	n := maxRawLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
