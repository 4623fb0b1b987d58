package types

import (
	"reflect"
	"strings"
	"time"

	"github.com/okian/grapple/internal/domain/aggregate"
	"github.com/okian/grapple/internal/domain/model"
)

// Table names of the output contract.
const (
	TableMatches     = "matches"
	TableWrestlers   = "wrestlers"
	TableHistory     = "rating_history"
	TableHeadToHead  = "head_to_head"
	TableIndividuals = "individual_leaderboard"
	TableTeams       = "team_leaderboard"
)

// Table is a named set of rows in column order. Values are nil for null
// columns, time.Time for dates and plain Go scalars otherwise.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Tables holds every output of one run.
type Tables struct {
	Matches     []MatchRow
	Wrestlers   []WrestlerRow
	History     []HistoryRow
	HeadToHead  []HeadToHeadRow
	Individuals []IndividualRow
	Teams       []TeamRow
}

// NewTables flattens the engine's matches and the aggregates.
func NewTables(matches []model.RatedMatch, agg aggregate.Result) Tables {
	var t Tables
	t.Matches = make([]MatchRow, len(matches))
	for i, m := range matches {
		t.Matches[i] = NewMatchRow(m)
	}
	t.Wrestlers = make([]WrestlerRow, len(agg.Wrestlers))
	for i, w := range agg.Wrestlers {
		t.Wrestlers[i] = NewWrestlerRow(w)
	}
	t.History = make([]HistoryRow, len(agg.History))
	for i, h := range agg.History {
		t.History[i] = NewHistoryRow(h)
	}
	t.HeadToHead = make([]HeadToHeadRow, len(agg.HeadToHead))
	for i, h := range agg.HeadToHead {
		t.HeadToHead[i] = HeadToHeadRow(h)
	}
	t.Individuals = make([]IndividualRow, len(agg.Individuals))
	for i, r := range agg.Individuals {
		t.Individuals[i] = NewIndividualRow(r)
	}
	t.Teams = make([]TeamRow, len(agg.Teams))
	for i, r := range agg.Teams {
		t.Teams[i] = NewTeamRow(r)
	}
	return t
}

// All returns the tables in write order.
func (t Tables) All() []Table {
	return []Table{
		NewTable(TableMatches, t.Matches),
		NewTable(TableWrestlers, t.Wrestlers),
		NewTable(TableHistory, t.History),
		NewTable(TableHeadToHead, t.HeadToHead),
		NewTable(TableIndividuals, t.Individuals),
		NewTable(TableTeams, t.Teams),
	}
}

// NewTable converts row structs into a Table using their json tags as
// column names.
func NewTable[T any](name string, rows []T) Table {
	t := Table{Name: name, Columns: Columns[T](), Rows: make([][]any, len(rows))}
	for i, r := range rows {
		t.Rows[i] = Values(r)
	}
	return t
}

// Columns lists the column names of row type T.
func Columns[T any]() []string {
	rt := reflect.TypeFor[T]()
	cols := make([]string, 0, rt.NumField())
	for i := range rt.NumField() {
		if name, ok := column(rt.Field(i)); ok {
			cols = append(cols, name)
		}
	}
	return cols
}

// Values lists the column values of one row.
func Values[T any](row T) []any {
	rv := reflect.ValueOf(row)
	rt := rv.Type()
	out := make([]any, 0, rt.NumField())
	for i := range rt.NumField() {
		if _, ok := column(rt.Field(i)); !ok {
			continue
		}
		out = append(out, scalar(rv.Field(i)))
	}
	return out
}

func column(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, true
}

var dateType = reflect.TypeFor[Date]()

func scalar(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Type() == dateType {
		return time.Time(v.Interface().(Date))
	}
	return v.Interface()
}
