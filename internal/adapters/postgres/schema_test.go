package postgres

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/grapple/internal/domain/types"
)

func TestSchema(t *testing.T) {
	Convey("Given the declared schema", t, func() {
		Convey("Then every output table matches its row columns", func() {
			So(checkColumns(types.Tables{}.All()), ShouldBeNil)
		})

		Convey("Then the DDL declares keys and nullability", func() {
			ddl := DDL()
			So(len(ddl), ShouldEqual, 6)
			So(ddl[0], ShouldStartWith, "CREATE TABLE IF NOT EXISTS matches (")
			So(ddl[0], ShouldContainSubstring, "\tloser_id text,\n")
			So(ddl[0], ShouldContainSubstring, "\twinner_id text NOT NULL,\n")
			So(ddl[0], ShouldContainSubstring, "PRIMARY KEY (match_id)")
			So(strings.Count(ddl[2], "NOT NULL"), ShouldEqual, 17)
		})

		Convey("Then a drifted table is rejected", func() {
			bad := []types.Table{{Name: types.TableTeams, Columns: []string{"team"}}}
			So(errors.Is(checkColumns(bad), ErrSchemaMismatch), ShouldBeTrue)
			unknown := []types.Table{{Name: "scratch"}}
			So(errors.Is(checkColumns(unknown), ErrSchemaMismatch), ShouldBeTrue)
		})
	})
}
