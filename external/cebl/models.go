package cebl

import (
	"strconv"
	"strings"
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
)

// gameRecord mirrors one entry of the league API's games list.
type gameRecord struct {
	ID              int64  `json:"id"`
	Season          int    `json:"season"`
	StartTimeUTC    string `json:"start_time_utc"`
	VenueName       string `json:"venue_name"`
	HomeTeamID      int64  `json:"home_team_id"`
	HomeTeamName    string `json:"home_team_name"`
	HomeTeamLogoURL string `json:"home_team_logo_url"`
	AwayTeamID      int64  `json:"away_team_id"`
	AwayTeamName    string `json:"away_team_name"`
	AwayTeamLogoURL string `json:"away_team_logo_url"`

	// FibaLiveStatsID is the Genius Sports match number. Zero until the
	// league assigns one, usually on game day.
	FibaLiveStatsID int64 `json:"fiba_live_stats_id"`
}

func (g gameRecord) toFixture(season string) (fixture.Fixture, bool) {
	if g.ID <= 0 || g.HomeTeamID <= 0 || g.AwayTeamID <= 0 {
		return fixture.Fixture{}, false
	}

	start, err := parseFeedTime(g.StartTimeUTC)
	if err != nil {
		return fixture.Fixture{}, false
	}

	liveMatchID := ""
	if g.FibaLiveStatsID > 0 {
		liveMatchID = strconv.FormatInt(g.FibaLiveStatsID, 10)
	}

	return fixture.Fixture{
		ID:     strconv.FormatInt(g.ID, 10),
		Season: season,
		HomeTeam: fixture.TeamRef{
			ID:      strconv.FormatInt(g.HomeTeamID, 10),
			Name:    strings.TrimSpace(g.HomeTeamName),
			LogoURL: strings.TrimSpace(g.HomeTeamLogoURL),
		},
		AwayTeam: fixture.TeamRef{
			ID:      strconv.FormatInt(g.AwayTeamID, 10),
			Name:    strings.TrimSpace(g.AwayTeamName),
			LogoURL: strings.TrimSpace(g.AwayTeamLogoURL),
		},
		Venue:          strings.TrimSpace(g.VenueName),
		ScheduledStart: start,
		LiveMatchID:    liveMatchID,
	}, true
}

// parseFeedTime accepts the feed's RFC3339 timestamps, with or without
// the trailing Z the API sometimes drops.
func parseFeedTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
