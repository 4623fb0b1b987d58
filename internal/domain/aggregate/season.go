package aggregate

import (
	"fmt"
	"time"
)

// AllSeasons labels leaderboard rows that span every season.
const AllSeasons = "all"

// DefaultSeasonStartMonth starts a season on September 1.
const DefaultSeasonStartMonth = time.September

// Season labels the season d falls in, e.g. "2024-2025" for any date from
// September 1, 2024 through August 31, 2025.
func Season(d time.Time, start time.Month) string {
	if start < time.January || start > time.December {
		start = DefaultSeasonStartMonth
	}
	y := d.Year()
	if d.Month() < start {
		y--
	}
	return fmt.Sprintf("%d-%d", y, y+1)
}
