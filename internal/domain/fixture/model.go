package fixture

import (
	"sort"
	"strings"
	"time"
)

// TeamRef identifies one side of a fixture as the fixtures feed reports it.
type TeamRef struct {
	ID      string
	Name    string
	LogoURL string
}

// Fixture represents one scheduled game. Immutable within a tick; the
// repository replaces it wholesale on re-fetch.
type Fixture struct {
	ID             string
	Season         string
	HomeTeam       TeamRef
	AwayTeam       TeamRef
	Venue          string
	ScheduledStart time.Time

	// LiveMatchID is the live-stats match number. Empty until the feed
	// assigns one, usually shortly before tip-off.
	LiveMatchID string
}

func (f Fixture) Involves(teamID string) bool {
	return f.HomeTeam.ID == teamID || f.AwayTeam.ID == teamID
}

func (f Fixture) HasLiveFeed() bool {
	return strings.TrimSpace(f.LiveMatchID) != ""
}

// Perspective splits the fixture into the tracked team's side and the
// opponent's, plus where the opponent plays ("home" or "away").
func (f Fixture) Perspective(teamID string) (team, opponent TeamRef, opponentHomeAway string) {
	if f.HomeTeam.ID == teamID {
		return f.HomeTeam, f.AwayTeam, "away"
	}
	return f.AwayTeam, f.HomeTeam, "home"
}

// SortByStart orders fixtures by scheduled start ascending, id as
// tiebreak so the order is stable across re-fetches.
func SortByStart(fixtures []Fixture) {
	sort.Slice(fixtures, func(i, j int) bool {
		if fixtures[i].ScheduledStart.Equal(fixtures[j].ScheduledStart) {
			return fixtures[i].ID < fixtures[j].ID
		}
		return fixtures[i].ScheduledStart.Before(fixtures[j].ScheduledStart)
	})
}
