package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/grapple/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have the documented defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.InitialRating, convey.ShouldEqual, 1500)
			convey.So(cfg.KFactor, convey.ShouldEqual, 32)
			convey.So(cfg.DecisionMultipliers["fall"], convey.ShouldEqual, 1.5)
			convey.So(cfg.RateForfeits, convey.ShouldBeTrue)
			convey.So(cfg.CountUnratedMatches, convey.ShouldBeFalse)
			convey.So(cfg.OnInconsistency, convey.ShouldEqual, "halt")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	ctx := context.Background()
	t.Setenv("GRAPPLE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("GRAPPLE_K_FACTOR", "24")
		t.Setenv("GRAPPLE_COUNT_UNRATED_MATCHES", "true")
		t.Setenv("GRAPPLE_DECISION_MULTIPLIERS__FALL", "2")
		t.Setenv("GRAPPLE_ON_INCONSISTENCY", "continue")

		cfg, err := config.Load(ctx)

		convey.Convey("Then they win over defaults and keep other multipliers", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.KFactor, convey.ShouldEqual, 24)
			convey.So(cfg.CountUnratedMatches, convey.ShouldBeTrue)
			convey.So(cfg.DecisionMultipliers["fall"], convey.ShouldEqual, 2)
			convey.So(cfg.DecisionMultipliers["tech_fall"], convey.ShouldEqual, 1.25)
			convey.So(cfg.OnInconsistency, convey.ShouldEqual, "continue")
		})
	})

	convey.Convey("Given a YAML file and a .env file", t, func() {
		dir := t.TempDir()
		yml := filepath.Join(dir, "grapple.yaml")
		_ = os.WriteFile(yml, []byte("initial_rating: 1000\noutput_format: json\nname_aliases:\n  \"Cam Cook Cash\": \"Cam Cook-Cash\"\n"), 0o600)
		dot := filepath.Join(dir, "test.env")
		_ = os.WriteFile(dot, []byte("GRAPPLE_LEADERBOARD_LIMIT=25\n"), 0o600)
		t.Setenv("GRAPPLE_CONFIG", yml)
		t.Setenv("GRAPPLE_ENV_FILE", dot)

		cfg, err := config.Load(ctx)

		convey.Convey("Then both layers apply", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.InitialRating, convey.ShouldEqual, 1000)
			convey.So(cfg.OutputFormat, convey.ShouldEqual, "json")
			convey.So(cfg.NameAliases["Cam Cook Cash"], convey.ShouldEqual, "Cam Cook-Cash")
			convey.So(cfg.LeaderboardLimit, convey.ShouldEqual, 25)
		})
	})

	convey.Convey("Given invalid values", t, func() {
		t.Setenv("GRAPPLE_ON_INCONSISTENCY", "panic")
		_, err := config.Load(ctx)
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "on_inconsistency")
	})

	convey.Convey("Given a missing YAML file", t, func() {
		t.Setenv("GRAPPLE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := config.Load(ctx)
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})

	convey.Convey("Given a bad multiplier name", t, func() {
		cfg := config.New()
		cfg.DecisionMultipliers["pinfall"] = 2
		convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
