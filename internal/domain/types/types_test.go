package types_test

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/grapple/internal/domain/aggregate"
	"github.com/okian/grapple/internal/domain/model"
	types "github.com/okian/grapple/internal/domain/types"
)

func TestMatchRow(t *testing.T) {
	Convey("Given a rated match and an excluded bye", t, func() {
		date := time.Date(2024, 12, 7, 0, 0, 0, 0, time.UTC)
		loser := model.NewParticipant("Ann Lee", "Hilltop")
		rated := model.RatedMatch{
			Match: model.Match{
				ID: "10/r1/1", EventID: "10", Date: date, Decision: model.DecisionFall, FallTime: "1:23",
				Winner: model.NewParticipant("Cam Cook-Cash", "Valley"), Loser: &loser,
			},
			Rating: model.Rating{Sequence: 1, Outcome: model.OutcomeRated, K: 48, Expected: 0.5,
				WinnerPre: 1500, WinnerPost: 1524, LoserPre: 1500, LoserPost: 1476},
		}
		bye := model.RatedMatch{
			Match:  model.Match{ID: "10/r1/2", EventID: "10", Date: date, Decision: model.DecisionBye, Winner: model.NewParticipant("Bo", "")},
			Rating: model.Rating{Sequence: 2, Outcome: model.OutcomeExcluded, WinnerPre: 1500, WinnerPost: 1500},
		}

		Convey("When flattened", func() {
			r := types.NewMatchRow(rated)
			b := types.NewMatchRow(bye)

			Convey("Then ratings are set only for rated matches", func() {
				So(*r.WinnerPost, ShouldEqual, 1524)
				So(*r.LoserID, ShouldEqual, "ann lee")
				So(*r.FallTime, ShouldEqual, "1:23")
				So(r.Decision, ShouldEqual, "fall")
				So(b.WinnerPre, ShouldBeNil)
				So(b.LoserID, ShouldBeNil)
				So(b.Outcome, ShouldEqual, "excluded")
			})

			Convey("Then JSON uses the contract names and date-only values", func() {
				raw, err := json.Marshal(b)
				So(err, ShouldBeNil)
				var got map[string]any
				So(json.Unmarshal(raw, &got), ShouldBeNil)
				So(got["match_date"], ShouldEqual, "2024-12-07")
				So(got["loser_id"], ShouldBeNil)
				So(got["winner_name"], ShouldEqual, "Bo")
			})

			Convey("Then table values line up with columns", func() {
				tbl := types.NewTable(types.TableMatches, []types.MatchRow{r, b})
				So(tbl.Columns[0], ShouldEqual, "match_id")
				So(tbl.Columns[len(tbl.Columns)-1], ShouldEqual, "sequence")
				So(len(tbl.Rows[0]), ShouldEqual, len(tbl.Columns))
				So(tbl.Rows[0][3], ShouldEqual, date)
				So(tbl.Rows[1][16], ShouldBeNil)
			})
		})
	})
}

func TestTables(t *testing.T) {
	Convey("Given aggregates with an upset", t, func() {
		up := &aggregate.Upset{Gain: 40, MatchID: "m2", OpponentName: "C", OpponentTeam: "Team C",
			Date: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), EventName: "Open", Decision: "fall"}
		agg := aggregate.Result{
			Wrestlers:   []aggregate.WrestlerSummary{{ID: "a", Name: "A", Rating: 1540, Best: 1545, Rank: 1, Upset: up}},
			HeadToHead:  []aggregate.HeadToHead{{WrestlerID: "a", OpponentID: "c", Wins: 1, RatingChange: 40}},
			Individuals: []aggregate.IndividualRow{{Season: "all", ID: "a", Played: 4, Wins: 3, WinsFall: 1, Highest: 1545, Upset: up}},
			Teams:       []aggregate.TeamRow{{Season: "all", Team: "Valley", Wrestlers: 1, Played: 4, Wins: 3}},
		}
		tables := types.NewTables(nil, agg)

		Convey("Then every contract table is produced in order", func() {
			all := tables.All()
			So(len(all), ShouldEqual, 6)
			So(all[0].Name, ShouldEqual, types.TableMatches)
			So(all[5].Name, ShouldEqual, types.TableTeams)
			So(len(all[0].Rows), ShouldEqual, 0)
		})

		Convey("Then leaderboard percentages and upset context are flattened", func() {
			i := tables.Individuals[0]
			So(i.WinPct, ShouldEqual, 75)
			So(i.FallPct, ShouldAlmostEqual, 100.0/3, 1e-9)
			So(*i.UpsetOpponent, ShouldEqual, "C")
			So(i.UpsetDate.Time(), ShouldEqual, up.Date)
			So(*tables.Wrestlers[0].UpsetMatchID, ShouldEqual, "m2")
			So(tables.Wrestlers[0].AvgOpponentRating, ShouldBeNil)
			So(tables.HeadToHead[0].RatingChange, ShouldEqual, 40)
			So(tables.Teams[0].WinPct, ShouldEqual, 75)
		})
	})

	Convey("Given a Date round trip", t, func() {
		var d types.Date
		So(d.UnmarshalText([]byte("2025-08-31")), ShouldBeNil)
		So(d.Time().Month(), ShouldEqual, time.August)
		So(d.UnmarshalText([]byte("31/08/2025")), ShouldNotBeNil)
		So(types.NewDate(time.Time{}), ShouldBeNil)
	})
}
