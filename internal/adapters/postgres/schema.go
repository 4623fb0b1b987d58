package postgres

import (
	"fmt"
	"strings"

	"github.com/okian/grapple/internal/domain/types"
)

type column struct {
	name     string
	sqlType  string
	nullable bool
}

type table struct {
	name    string
	columns []column
	key     []string
}

func col(name, sqlType string) column  { return column{name: name, sqlType: sqlType} }
func null(name, sqlType string) column { return column{name: name, sqlType: sqlType, nullable: true} }

// schema is the column contract the reporting layer binds to.
var schema = []table{
	{
		name: types.TableMatches,
		key:  []string{"match_id"},
		columns: []column{
			col("match_id", "text"), col("event_id", "text"), col("event_name", "text"),
			col("match_date", "date"), col("round_id", "text"), col("round_label", "text"),
			col("round_ordinal", "integer"), col("bout", "integer"), col("weight_class", "text"),
			col("bracket", "text"), col("decision", "text"), col("result_code", "text"),
			col("overtime", "boolean"), col("winner_id", "text"), col("winner_name", "text"),
			col("winner_team", "text"), null("loser_id", "text"), null("loser_name", "text"),
			null("loser_team", "text"), null("winner_points", "integer"), null("loser_points", "integer"),
			null("fall_time", "text"), col("outcome", "text"), null("k", "double precision"),
			null("expected", "double precision"), null("winner_pre", "double precision"),
			null("winner_post", "double precision"), null("loser_pre", "double precision"),
			null("loser_post", "double precision"), col("sequence", "integer"),
		},
	},
	{
		name: types.TableWrestlers,
		key:  []string{"wrestler_id"},
		columns: []column{
			col("wrestler_id", "text"), col("name", "text"), col("team", "text"),
			col("matches_played", "integer"), col("wins", "integer"), col("losses", "integer"),
			col("wins_fall", "integer"), col("losses_fall", "integer"), col("wins_dq", "integer"),
			col("current_rating", "double precision"), col("best_rating", "double precision"),
			null("best_rating_date", "date"), null("last_match_date", "date"), null("last_opponent", "text"),
			null("avg_opponent_rating", "double precision"), col("rank", "integer"),
			null("upset_gain", "double precision"), null("upset_match_id", "text"),
		},
	},
	{
		name: types.TableHistory,
		key:  []string{"match_id", "wrestler_id"},
		columns: []column{
			col("match_id", "text"), col("sequence", "integer"), col("match_date", "date"),
			col("event_id", "text"), col("event_name", "text"), col("wrestler_id", "text"),
			col("wrestler_name", "text"), col("team", "text"), col("role", "text"),
			col("opponent_id", "text"), col("opponent_name", "text"), col("opponent_team", "text"),
			col("decision", "text"), col("pre_rating", "double precision"),
			col("post_rating", "double precision"), col("rating_change", "double precision"),
			col("opponent_pre_rating", "double precision"),
		},
	},
	{
		name: types.TableHeadToHead,
		key:  []string{"wrestler_id", "opponent_id"},
		columns: []column{
			col("wrestler_id", "text"), col("opponent_id", "text"), col("wins", "integer"),
			col("losses", "integer"), col("rating_change", "double precision"),
		},
	},
	{
		name: types.TableIndividuals,
		key:  []string{"season", "wrestler_id"},
		columns: []column{
			col("season", "text"), col("wrestler_id", "text"), col("name", "text"), col("team", "text"),
			col("matches_played", "integer"), col("wins", "integer"), col("losses", "integer"),
			col("wins_fall", "integer"), col("win_pct", "double precision"), col("fall_pct", "double precision"),
			col("highest_rating", "double precision"), null("upset_gain", "double precision"),
			null("upset_opponent", "text"), null("upset_opponent_team", "text"), null("upset_date", "date"),
			null("upset_event", "text"), null("upset_decision", "text"),
		},
	},
	{
		name: types.TableTeams,
		key:  []string{"season", "team"},
		columns: []column{
			col("season", "text"), col("team", "text"), col("wrestlers", "integer"),
			col("matches_played", "integer"), col("wins", "integer"), col("losses", "integer"),
			col("wins_fall", "integer"), col("win_pct", "double precision"), col("fall_pct", "double precision"),
			col("avg_rating", "double precision"), col("best_rating", "double precision"),
		},
	},
}

func (t table) ddl() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.name)
	for _, c := range t.columns {
		fmt.Fprintf(&b, "\t%s %s", c.name, c.sqlType)
		if !c.nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n)", strings.Join(t.key, ", "))
	return b.String()
}

func (t table) columnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.name
	}
	return out
}

// DDL returns the CREATE TABLE statements in write order.
func DDL() []string {
	out := make([]string, len(schema))
	for i, t := range schema {
		out[i] = t.ddl()
	}
	return out
}
