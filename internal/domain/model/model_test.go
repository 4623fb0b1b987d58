package model_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/grapple/internal/domain/model"
)

func TestDecisionType(t *testing.T) {
	Convey("Given the decision type enum", t, func() {
		Convey("When round-tripping every member through text", func() {
			Convey("Then each parses back to itself", func() {
				for _, d := range model.DecisionTypes() {
					b, err := d.MarshalText()
					So(err, ShouldBeNil)
					var got model.DecisionType
					So(got.UnmarshalText(b), ShouldBeNil)
					So(got, ShouldEqual, d)
				}
			})
		})

		Convey("When parsing aliases", func() {
			d, err := model.ParseDecisionType("Tech-Fall")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, model.DecisionTechFall)
			d, err = model.ParseDecisionType("major")
			So(err, ShouldBeNil)
			So(d, ShouldEqual, model.DecisionMajor)
		})

		Convey("When parsing garbage", func() {
			_, err := model.ParseDecisionType("pinned-ish")
			So(errors.Is(err, model.ErrUnknownDecision), ShouldBeTrue)
		})

		Convey("Then only byes and no-contests are inherently unrated", func() {
			So(model.DecisionBye.Unrated(), ShouldBeTrue)
			So(model.DecisionNoContest.Unrated(), ShouldBeTrue)
			So(model.DecisionForfeit.Unrated(), ShouldBeFalse)
			So(model.DecisionUnknown.Unrated(), ShouldBeFalse)
		})
	})
}

func TestMatch(t *testing.T) {
	Convey("Given participants", t, func() {
		w := model.NewParticipant("Cam  Cook-Cash", "Heritage")
		So(w.ID, ShouldEqual, "cam cook-cash")

		Convey("When the match has no loser", func() {
			m := model.Match{Winner: w, Decision: model.DecisionBye}
			So(m.HasLoser(), ShouldBeFalse)
			So(m.Contested(), ShouldBeFalse)
		})

		Convey("When the match has two wrestlers", func() {
			l := model.NewParticipant("Collin Carr", "Leesburg")
			m := model.Match{Winner: w, Loser: &l, Decision: model.DecisionDecision}
			So(m.Contested(), ShouldBeTrue)
			So(m.Loser.ID, ShouldEqual, "collin carr")
		})
	})
}

func TestRatedMatchDeltas(t *testing.T) {
	Convey("Given a rated match", t, func() {
		rm := model.RatedMatch{Rating: model.Rating{
			Outcome: model.OutcomeRated, WinnerPre: 1500, WinnerPost: 1516, LoserPre: 1500, LoserPost: 1484,
		}}
		So(rm.WinnerDelta(), ShouldEqual, 16)
		So(rm.LoserDelta(), ShouldEqual, -16)

		Convey("When the match was not rated", func() {
			rm.Rating.Outcome = model.OutcomeCounted
			So(rm.WinnerDelta(), ShouldEqual, 0)
			So(rm.Rating.Outcome.Counts(), ShouldBeTrue)
			So(model.OutcomeHalted.Counts(), ShouldBeFalse)
		})
	})
}

func TestReport(t *testing.T) {
	Convey("Given a report", t, func() {
		r := model.Report{SourceRows: 5, Matches: 2, Skipped: 1}
		r.Add(model.Issue{Kind: model.IssueExtraction, EventID: "2", Row: 3})
		r.Add(model.Issue{Kind: model.IssueUnparsed, EventID: "1", Row: 4})

		Convey("Then every row is reconciled", func() {
			So(r.Reconciled(), ShouldBeTrue)
		})

		Convey("When a rating warning is added", func() {
			r.Add(model.Issue{Kind: model.IssueRating})
			Convey("Then reconciliation ignores it", func() {
				So(r.Reconciled(), ShouldBeTrue)
			})
		})

		Convey("When merging and sorting", func() {
			var total model.Report
			total.Merge(r)
			total.Merge(model.Report{SourceRows: 1, Skipped: 1})
			total.Sort()
			So(total.SourceRows, ShouldEqual, 6)
			So(total.Reconciled(), ShouldBeTrue)
			So(total.Issues[0].Kind, ShouldEqual, model.IssueUnparsed)
			So(total.Count(model.IssueExtraction), ShouldEqual, 1)
		})
	})
}
