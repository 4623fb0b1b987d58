package normalize_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/normalize"
)

const tournamentHTML = `<html><body>
<section class="tw-list">
  <p>Results as of 5pm</p>
  <h2>85</h2>
  <ul>
    <li>Champ. Round 1 - <a>Cam Cook</a> <a>-Cash</a> (<b>Heritage</b>) 4-1 won by fall over Ann Lee (Lions) 2-2 (Fall&nbsp;1:10)</li>
    <li>Champ. Round 1 - Sarah Miller (Panthers) 8-1 received a bye</li>
  </ul>
  <h2>92</h2>
  <ul>
    <li>   </li>
    <li>Jax Engh (Culpeper) over Nathan Taylor (Hopewell) Dec 3-2</li>
  </ul>
</section>
</body></html>`

const dualHTML = `<table class="tw-table">
<tr><th>Weight</th><th>Match</th></tr>
<tr><td><a href="#">106</a></td><td>Jamil Reyes (Osbourn) over Jadin Sampson - Johnson (Chancellor) Fall 3:34</td></tr>
<tr><td>Unsportsmanlike Conduct</td><td>Osbourn -1.0</td></tr>
<tr><td>Match Summary</td><td>Osbourn 42 Chancellor 30</td></tr>
<tr><td></td><td>72.0</td></tr>
<tr><td>113</td><td>-3.0</td></tr>
<tr><td>120</td><td>A Ay (T1) over B Bee (T2) MD 10-2</td></tr>
</table>`

func TestNormalizeTournamentList(t *testing.T) {
	Convey("Given a tournament round in list layout", t, func() {
		rows := normalize.New().Normalize(context.Background(), model.RoundDocument{EventID: "1", Body: tournamentHTML})

		Convey("Then every <li> becomes exactly one row", func() {
			So(len(rows), ShouldEqual, 4)
			for i, r := range rows {
				So(r.Index, ShouldEqual, i)
			}
		})

		Convey("Then bouts carry their weight class and collapsed text", func() {
			So(rows[0].Kind, ShouldEqual, model.RowBout)
			So(rows[0].WeightClass, ShouldEqual, "85")
			So(rows[0].Text, ShouldEqual, "Champ. Round 1 - Cam Cook -Cash ( Heritage ) 4-1 won by fall over Ann Lee (Lions) 2-2 (Fall 1:10)")
			So(rows[3].WeightClass, ShouldEqual, "92")
		})

		Convey("Then empty items are explicitly skipped", func() {
			So(rows[2].Kind, ShouldEqual, model.RowSkipped)
		})
	})
}

func TestNormalizeDualMeetTable(t *testing.T) {
	Convey("Given a dual meet round in table layout", t, func() {
		n := normalize.New(normalize.WithSkipKeywords("forfeit points"))
		rows := n.Normalize(context.Background(), model.RoundDocument{EventID: "2", Body: dualHTML})

		Convey("Then each <tr> maps to one row", func() {
			So(len(rows), ShouldEqual, 7)
		})

		Convey("Then headers, administrative rows and team scores are skipped", func() {
			kinds := make([]model.RowKind, len(rows))
			for i, r := range rows {
				kinds[i] = r.Kind
			}
			So(kinds, ShouldResemble, []model.RowKind{
				model.RowSkipped, model.RowBout, model.RowSkipped, model.RowSkipped,
				model.RowSkipped, model.RowSkipped, model.RowBout,
			})
			So(rows[0].Reason, ShouldEqual, "header row")
			So(rows[2].Reason, ShouldEqual, "administrative row")
			So(rows[3].Reason, ShouldEqual, "match summary row")
			So(rows[4].Reason, ShouldEqual, "no weight class")
			So(rows[5].Reason, ShouldEqual, "team score")
		})

		Convey("Then the weight comes from the link text", func() {
			So(rows[1].WeightClass, ShouldEqual, "106")
			So(rows[1].Raw, ShouldContainSubstring, "<tr>")
		})
	})
}

func TestNormalizeMalformed(t *testing.T) {
	Convey("Given markup without a known layout", t, func() {
		n := normalize.New()

		Convey("When the body has text", func() {
			rows := n.Normalize(context.Background(), model.RoundDocument{Body: "<div>Results unavailable</div>"})
			Convey("Then a single unparsed row is emitted", func() {
				So(len(rows), ShouldEqual, 1)
				So(rows[0].Kind, ShouldEqual, model.RowUnparsed)
				So(rows[0].Text, ShouldEqual, "Results unavailable")
			})
		})

		Convey("When the body is empty", func() {
			So(n.Normalize(context.Background(), model.RoundDocument{}), ShouldBeEmpty)
		})

		Convey("When list items appear before any weight heading", func() {
			rows := n.Normalize(context.Background(), model.RoundDocument{
				Body: `<section class="tw-list"><ul><li>A (T) over B (U) Dec 1-0</li></ul></section>`,
			})
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Kind, ShouldEqual, model.RowUnparsed)
			So(rows[0].Reason, ShouldEqual, "bout outside a weight class")
		})

		Convey("When a long body is clipped inside a multi-byte letter", func() {
			body := "<p>xy" + strings.Repeat("é", 1500) + "</p>"
			rows := n.Normalize(context.Background(), model.RoundDocument{Body: body})
			So(len(rows), ShouldEqual, 1)
			So(utf8.ValidString(rows[0].Raw), ShouldBeTrue)
			So(utf8.ValidString(rows[0].Text), ShouldBeTrue)
			So(len(rows[0].Raw), ShouldBeLessThanOrEqualTo, 2048)
			So(len(rows[0].Raw), ShouldBeGreaterThan, 2040)
		})

		Convey("When tags are unbalanced", func() {
			So(func() {
				n.Normalize(context.Background(), model.RoundDocument{Body: `<section class="tw-list"><h2>70<ul><li>x`})
			}, ShouldNotPanic)
		})
	})
}
