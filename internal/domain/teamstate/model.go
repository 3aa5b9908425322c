package teamstate

import (
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/livegame"
)

// Phase is the lifecycle stage of a team's current fixture.
type Phase string

const (
	PhasePre  Phase = "PRE"
	PhaseIn   Phase = "IN"
	PhasePost Phase = "POST"
)

func (p Phase) Valid() bool {
	switch p {
	case PhasePre, PhaseIn, PhasePost:
		return true
	}
	return false
}

const (
	DataSourceLive    = "live_data"
	DataSourceFixture = "fixture_only"
)

// TeamState is the published per-team record. It is rebuilt in full
// every tick and replaced atomically; live-derived fields are nil
// unless the tick carried a validated live payload.
type TeamState struct {
	TeamID           string `json:"team_id"`
	TeamName         string `json:"team_name"`
	TeamLogo         string `json:"team_logo,omitempty"`
	OpponentName     string `json:"opponent_name"`
	OpponentLogo     string `json:"opponent_logo,omitempty"`
	OpponentHomeAway string `json:"opponent_homeaway"`
	Venue            string `json:"venue,omitempty"`

	FixtureID   string    `json:"fixture_id"`
	Season      string    `json:"season"`
	LiveMatchID string    `json:"live_match_id,omitempty"`
	Date        time.Time `json:"date"`

	Phase            Phase    `json:"state"`
	KickoffIn        string   `json:"kickoff_in"`
	KickoffInSeconds int64    `json:"kickoff_in_seconds"`
	HoursSinceGame   *float64 `json:"hours_since_game,omitempty"`

	TeamScore       *int                 `json:"team_score,omitempty"`
	OpponentScore   *int                 `json:"opponent_score,omitempty"`
	ScoreDifference *int                 `json:"score_difference,omitempty"`
	MatchClock      *string              `json:"match_clock,omitempty"`
	MatchPeriod     *int                 `json:"match_period,omitempty"`
	PeriodType      *string              `json:"period_type,omitempty"`
	TeamStats       *livegame.Statistics `json:"team_stats,omitempty"`

	TopScorerName   *string `json:"top_scorer_name,omitempty"`
	TopScorerPoints *int    `json:"top_scorer_points,omitempty"`
	TopScorerNumber *int    `json:"top_scorer_number,omitempty"`

	DataSource          string    `json:"data_source"`
	LastUpdated         time.Time `json:"last_updated"`
	PollIntervalSeconds int       `json:"poll_interval_seconds"`
}

// HasLiveFields reports whether any live-derived attribute is set.
func (s TeamState) HasLiveFields() bool {
	return s.TeamScore != nil || s.OpponentScore != nil || s.ScoreDifference != nil ||
		s.MatchClock != nil || s.MatchPeriod != nil || s.PeriodType != nil ||
		s.TeamStats != nil || s.TopScorerName != nil
}
