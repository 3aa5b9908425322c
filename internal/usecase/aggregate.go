package usecase

import (
	"fmt"
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/domain/livegame"
	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
)

// BuildInput feeds one TeamState construction. Snapshot must be the
// payload validated this tick, or nil; the builder decides whether the
// phase allows live fields at all.
type BuildInput struct {
	TeamID       string
	Fixture      fixture.Fixture
	Phase        teamstate.Phase
	Snapshot     *livegame.Snapshot
	Now          time.Time
	PollInterval time.Duration
}

// BuildTeamState merges fixture metadata and validated live data into
// the published record. Pure function; no I/O.
//
// Live-derived fields are set only when the phase is IN, or POST with
// a terminal payload from this tick. Everything else publishes
// fixture-only attributes.
func BuildTeamState(in BuildInput) teamstate.TeamState {
	team, opponent, opponentHomeAway := in.Fixture.Perspective(in.TeamID)

	untilKickoff := in.Fixture.ScheduledStart.Sub(in.Now)
	kickoffSeconds := int64(untilKickoff.Seconds())
	if kickoffSeconds < 0 {
		kickoffSeconds = 0
	}

	state := teamstate.TeamState{
		TeamID:           in.TeamID,
		TeamName:         team.Name,
		TeamLogo:         team.LogoURL,
		OpponentName:     opponent.Name,
		OpponentLogo:     opponent.LogoURL,
		OpponentHomeAway: opponentHomeAway,
		Venue:            in.Fixture.Venue,

		FixtureID:   in.Fixture.ID,
		Season:      in.Fixture.Season,
		LiveMatchID: in.Fixture.LiveMatchID,
		Date:        in.Fixture.ScheduledStart,

		Phase:            in.Phase,
		KickoffIn:        kickoffBucket(in.Fixture.ScheduledStart, in.Now),
		KickoffInSeconds: kickoffSeconds,

		DataSource:          teamstate.DataSourceFixture,
		LastUpdated:         in.Now,
		PollIntervalSeconds: int(in.PollInterval.Seconds()),
	}

	if in.Phase == teamstate.PhasePost {
		hours := in.Now.Sub(in.Fixture.ScheduledStart).Hours()
		if hours < 0 {
			hours = 0
		}
		state.HoursSinceGame = &hours
	}

	if in.Snapshot == nil || !liveFieldsAllowed(in.Phase, in.Snapshot) {
		return state
	}

	teamBox, oppBox, ok := in.Snapshot.Perspective(team.Name)
	if !ok {
		return state
	}

	state.DataSource = teamstate.DataSourceLive

	teamScore := teamBox.Score
	oppScore := oppBox.Score
	diff := teamScore - oppScore
	if diff < 0 {
		diff = -diff
	}
	state.TeamScore = &teamScore
	state.OpponentScore = &oppScore
	state.ScoreDifference = &diff

	clock := in.Snapshot.Clock
	period := in.Snapshot.Period
	periodType := in.Snapshot.PeriodType
	state.MatchClock = &clock
	state.MatchPeriod = &period
	state.PeriodType = &periodType

	stats := teamBox.Statistics
	state.TeamStats = &stats

	if top, ok := livegame.TopScorerOf(teamBox); ok {
		name := top.Name
		points := top.Points
		number := top.ShirtNumber
		state.TopScorerName = &name
		state.TopScorerPoints = &points
		state.TopScorerNumber = &number
	}

	return state
}

func liveFieldsAllowed(phase teamstate.Phase, snap *livegame.Snapshot) bool {
	switch phase {
	case teamstate.PhaseIn:
		return true
	case teamstate.PhasePost:
		return snap.Terminal()
	default:
		return false
	}
}

// kickoffBucket renders the time to (or since) kickoff the way the
// schedule feed's consumers expect: "in 2 days", "in 3 hours",
// "in 5 minutes", "now", or the "ago" variants after the start.
func kickoffBucket(start, now time.Time) string {
	delta := start.Sub(now)
	if delta > 0 {
		days := int(delta.Hours()) / 24
		hours := int(delta.Hours()) % 24
		minutes := int(delta.Minutes()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("in %d days", days)
		case hours > 0:
			return fmt.Sprintf("in %d hours", hours)
		case minutes > 0:
			return fmt.Sprintf("in %d minutes", minutes)
		default:
			return "now"
		}
	}

	delta = -delta
	days := int(delta.Hours()) / 24
	hours := int(delta.Hours()) % 24
	minutes := int(delta.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%d days ago", days)
	case hours > 0:
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return fmt.Sprintf("%d minutes ago", minutes)
	}
}
