package sequence_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/grapple/internal/domain/model"
	"github.com/okian/grapple/internal/domain/sequence"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func match(id, event string, date time.Time, round, bout int, w, l string) model.Match {
	lp := model.NewParticipant(l, "")
	return model.Match{
		ID: id, EventID: event, Date: date, RoundOrdinal: round, Bout: bout,
		Winner: model.NewParticipant(w, ""), Loser: &lp, Decision: model.DecisionDecision,
	}
}

func ids(ms []model.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestSequenceOrdering(t *testing.T) {
	Convey("Given two rounds of the same event on the same day", t, func() {
		a := match("A", "10", day(2024, 1, 5), 1, 1, "Cam Cook-Cash", "Ann Lee")
		b := match("B", "10", day(2024, 1, 5), 2, 1, "Cam Cook-Cash", "Bea Kim")
		s := sequence.New()

		Convey("Then A precedes B regardless of input order", func() {
			So(ids(s.Sequence(context.Background(), []model.Match{a, b}).Matches), ShouldResemble, []string{"A", "B"})
			So(ids(s.Sequence(context.Background(), []model.Match{b, a}).Matches), ShouldResemble, []string{"A", "B"})
		})
	})

	Convey("Given matches across dates, events, rounds and bouts", t, func() {
		in := []model.Match{
			match("m6", "9", day(2024, 2, 1), 1, 1, "a", "b"),
			match("m5", "100", day(2024, 1, 6), 1, 1, "a", "b"),
			match("m4", "20", day(2024, 1, 6), 2, 1, "a", "b"),
			match("m3", "20", day(2024, 1, 6), 1, 7, "a", "b"),
			match("m2", "20", day(2024, 1, 6), 1, 3, "a", "b"),
			match("m1", "99", day(2023, 12, 30), 5, 1, "a", "b"),
		}
		want := []string{"m1", "m2", "m3", "m4", "m5", "m6"}

		Convey("Then the order is date, numeric event id, round, bout", func() {
			So(ids(sequence.New().Sequence(context.Background(), in).Matches), ShouldResemble, want)
		})

		Convey("Then shuffling the input never changes the output", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 20; i++ {
				shuffled := append([]model.Match(nil), in...)
				rng.Shuffle(len(shuffled), func(x, y int) { shuffled[x], shuffled[y] = shuffled[y], shuffled[x] })
				So(ids(sequence.New().Sequence(context.Background(), shuffled).Matches), ShouldResemble, want)
			}
		})

		Convey("Then the input slice is not reordered", func() {
			sequence.New().Sequence(context.Background(), in)
			So(in[0].ID, ShouldEqual, "m6")
		})
	})
}

func TestSequenceAmbiguity(t *testing.T) {
	Convey("Given two matches tied on every primary key", t, func() {
		x := match("x", "10", day(2024, 1, 5), 1, 4, "Zed Young", "Amy Abel")
		y := match("y", "10", day(2024, 1, 5), 1, 4, "Bob Bell", "Cy Cole")
		res := sequence.New().Sequence(context.Background(), []model.Match{x, y})

		Convey("Then the tie is broken by participant names and reported", func() {
			So(ids(res.Matches), ShouldResemble, []string{"y", "x"})
			So(res.Report.Count(model.IssueAmbiguity), ShouldEqual, 1)
			So(res.Report.Issues[0].MatchID, ShouldEqual, "x")
		})
	})
}

func TestRoundOrder(t *testing.T) {
	Convey("Given round labels", t, func() {
		cases := map[string]int{
			"":                50,
			"Pigtail":         5,
			"Prelims":         10,
			"R1":              20,
			"Champ. Round 2":  30,
			"Cons. Round 3":   40,
			"Quarterfinal":    80,
			"Consolation":     85,
			"Semifinal":       90,
			"Cons. Semi":      90,
			"Final":           100,
			"Championship":    100,
			"3rd Place Match": 110,
			"Mystery":         60,
		}
		for label, want := range cases {
			So(sequence.RoundOrder(label), ShouldEqual, want)
		}
	})

	Convey("Given a match without an explicit ordinal", t, func() {
		m := model.Match{RoundLabel: "Semifinal"}
		So(sequence.KeyOf(m).Round, ShouldEqual, 90)
		m.RoundOrdinal = 3
		So(sequence.KeyOf(m).Round, ShouldEqual, 3)
	})
}

func TestChains(t *testing.T) {
	Convey("Given sequenced matches", t, func() {
		ms := []model.Match{
			match("1", "1", day(2024, 1, 1), 1, 1, "a", "b"),
			match("2", "1", day(2024, 1, 1), 2, 1, "b", "c"),
			{ID: "3", Winner: model.NewParticipant("a", ""), Decision: model.DecisionBye},
		}
		chains := sequence.Chains(ms)
		So(chains["a"], ShouldResemble, []int{0, 2})
		So(chains["b"], ShouldResemble, []int{0, 1})
		So(chains["c"], ShouldResemble, []int{1})
	})
}
