package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/grapple/internal/app"
	"github.com/okian/grapple/internal/config"
	"github.com/okian/grapple/internal/domain/model"
)

func dual(eventID string, day int, bouts ...string) model.RoundDocument {
	var b strings.Builder
	b.WriteString(`<table class="tw-table"><tr><th>Weight</th><th>Match</th></tr>`)
	for i, bout := range bouts {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td></tr>", 106+7*i, bout)
	}
	b.WriteString(`</table>`)
	return model.RoundDocument{
		EventID:    eventID,
		EventName:  "Dual " + eventID,
		Date:       time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
		RoundID:    "r1",
		RoundLabel: "Dual",
		Body:       b.String(),
	}
}

var (
	first = dual("100", 6,
		"A Ay (T1) over B Bee (T2) Dec 3-1",
		"C Cee (T1) over D Dee (T2) Fall 1:00",
		"-3.0")
	second = dual("101", 13, "B Bee (T2) over A Ay (T1) MD 10-2")
	third  = dual("102", 20, "C Cee (T1) over A Ay (T1) Dec 5-4")
)

func ratings(r *service.Run) map[string]float64 {
	out := map[string]float64{}
	for _, w := range r.Tables.Wrestlers {
		out[w.WrestlerID] = w.CurrentRating
	}
	return out
}

func TestServiceRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service before any run", t, func() {
		svc := service.New(service.WithWorkerCount(2))

		Convey("Then reads and Extend report that nothing ran", func() {
			_, err := svc.Wrestler(ctx, "a ay")
			So(errors.Is(err, service.ErrNoRun), ShouldBeTrue)
			_, err = svc.Extend(ctx, []model.RoundDocument{third})
			So(errors.Is(err, service.ErrNoRun), ShouldBeTrue)
			So(svc.GetStats()["ready"], ShouldEqual, false)
		})
	})

	Convey("Given two rounds and a repeated document", t, func() {
		svc := service.New(service.WithWorkerCount(3), service.WithQueueSize(1))
		run, err := svc.Run(ctx, []model.RoundDocument{second, first, first})
		So(err, ShouldBeNil)

		Convey("Then every match is rated once in date order", func() {
			So(len(run.Matches), ShouldEqual, 3)
			So(run.Matches[0].Match.EventID, ShouldEqual, "100")
			So(run.Matches[2].Match.EventID, ShouldEqual, "101")
			for i, m := range run.Matches {
				So(m.Rating.Outcome, ShouldEqual, model.OutcomeRated)
				So(m.Rating.Sequence, ShouldEqual, i+1)
			}
			r := ratings(run)
			So(r["c cee"], ShouldAlmostEqual, 1524, 1e-9)
			So(r["d dee"], ShouldAlmostEqual, 1476, 1e-9)
			So(r["a ay"]+r["b bee"], ShouldAlmostEqual, 3000, 1e-9)
		})

		Convey("Then the report accounts for every row and the duplicate", func() {
			So(run.Report.Documents, ShouldEqual, 2)
			So(run.Report.SourceRows, ShouldEqual, 6)
			So(run.Report.Skipped, ShouldEqual, 3)
			So(run.Report.Count(model.IssueDuplicate), ShouldEqual, 1)
			So(run.Report.Reconciled(), ShouldBeTrue)
			So(svc.DedupeSize(), ShouldEqual, 2)
		})

		Convey("Then the rating index serves ranks", func() {
			top, err := svc.TopN(ctx, 2)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 2)
			So(top[0].WrestlerID, ShouldEqual, "c cee")
			So(top[0].Rank, ShouldEqual, 1)

			e, err := svc.Rank(ctx, "d dee")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 4)
		})

		Convey("Then wrestler views carry history and head-to-head", func() {
			v, err := svc.Wrestler(ctx, "a ay")
			So(err, ShouldBeNil)
			So(v.Wrestler.MatchesPlayed, ShouldEqual, 2)
			So(len(v.History), ShouldEqual, 2)
			So(v.History[0].Role, ShouldEqual, "W")
			So(len(v.HeadToHead), ShouldEqual, 1)
			So(v.HeadToHead[0].Wins, ShouldEqual, 1)
			So(v.HeadToHead[0].Losses, ShouldEqual, 1)

			_, err = svc.Wrestler(ctx, "nobody")
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then leaderboards are split by season", func() {
			seasons, err := svc.Seasons(ctx)
			So(err, ShouldBeNil)
			So(seasons, ShouldResemble, []string{"2023-2024"})

			all, err := svc.Leaderboard(ctx, "", 0)
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 4)
			So(all[0].Season, ShouldEqual, "all")

			two, err := svc.Leaderboard(ctx, "2023-2024", 2)
			So(err, ShouldBeNil)
			So(len(two), ShouldEqual, 2)

			teams, err := svc.Teams(ctx, "2023-2024")
			So(err, ShouldBeNil)
			So(len(teams), ShouldEqual, 2)

			none, err := svc.Leaderboard(ctx, "1999-2000", 10)
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)
		})

		Convey("Then stats describe the run", func() {
			stats := svc.GetStats()
			So(stats["ready"], ShouldEqual, true)
			So(stats["runId"], ShouldEqual, run.ID)
			So(stats["matches"], ShouldEqual, 3)
			So(stats["reconciled"], ShouldEqual, true)
			So(stats["initialRating"], ShouldEqual, 1500.0)
			So(stats["seenDocuments"], ShouldEqual, int64(2))
			So(stats["outcomes"], ShouldResemble, map[string]int{"rated": 3})
		})

		Convey("When an incremental pass is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.Extend(cctx, []model.RoundDocument{third})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)

			Convey("Then its documents are not taken as seen", func() {
				So(svc.DedupeSize(), ShouldEqual, 2)
				So(svc.Last(), ShouldEqual, run)
				ext, err := svc.Extend(ctx, []model.RoundDocument{third})
				So(err, ShouldBeNil)
				So(ext.Report.Count(model.IssueDuplicate), ShouldEqual, 0)
				So(len(ext.Matches), ShouldEqual, 4)
			})
		})

		Convey("When new rounds are applied incrementally", func() {
			ext, err := svc.Extend(ctx, []model.RoundDocument{third, first})
			So(err, ShouldBeNil)

			Convey("Then only the new match is applied and the old run is untouched", func() {
				So(len(ext.Matches), ShouldEqual, 4)
				So(ext.Matches[3].Rating.Sequence, ShouldEqual, 4)
				So(ext.Report.Count(model.IssueDuplicate), ShouldEqual, 1)
				So(ext.ID, ShouldNotEqual, run.ID)
				So(len(run.Matches), ShouldEqual, 3)
				c, _ := run.State.Wrestler("c cee")
				So(c.Played, ShouldEqual, 1)
				So(svc.Last(), ShouldEqual, ext)
			})

			Convey("Then the result equals a full recompute", func() {
				full, err := service.New().Run(ctx, []model.RoundDocument{first, second, third})
				So(err, ShouldBeNil)
				So(ratings(ext), ShouldResemble, ratings(full))
				So(len(full.Tables.History), ShouldEqual, len(ext.Tables.History))
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := service.New().Run(cctx, []model.RoundDocument{first, second})
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}

func TestNewFromConfig(t *testing.T) {
	Convey("Given a config with a smaller K and aliases", t, func() {
		cfg := config.New()
		cfg.KFactor = 16
		cfg.WorkerCount = 2
		cfg.NameAliases = map[string]string{"B Bee": "Bea Bee"}

		svc, err := service.NewFromConfig(cfg, nil)
		So(err, ShouldBeNil)
		run, err := svc.Run(context.Background(), []model.RoundDocument{first})
		So(err, ShouldBeNil)

		Convey("Then the engine and extractor follow it", func() {
			r := ratings(run)
			So(r["a ay"], ShouldAlmostEqual, 1508, 1e-9)
			So(r["c cee"], ShouldAlmostEqual, 1512, 1e-9)
			_, ok := r["bea bee"]
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := config.New()
		cfg.OnInconsistency = "shrug"
		_, err := service.NewFromConfig(cfg, nil)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}
