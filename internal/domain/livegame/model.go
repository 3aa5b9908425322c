package livegame

import (
	"fmt"
	"strings"
)

// RegulationPeriods is the number of quarters in a regulation game.
const RegulationPeriods = 4

// PlayerLine is one roster row from the live box score.
type PlayerLine struct {
	Name        string
	ShirtNumber int
	Points      int
	Rebounds    int
	Assists     int
	Minutes     string
}

// Statistics is the per-team totals block the live feed reports.
type Statistics struct {
	FieldGoalPct  float64 `json:"field_goal_pct"`
	ThreePointPct float64 `json:"three_point_pct"`
	FreeThrowPct  float64 `json:"free_throw_pct"`
	Rebounds      int     `json:"rebounds"`
	Assists       int     `json:"assists"`
	Turnovers     int     `json:"turnovers"`
	Steals        int     `json:"steals"`
	Blocks        int     `json:"blocks"`
}

// TeamBox is one side of the live box score.
type TeamBox struct {
	Name       string
	Score      int
	Statistics Statistics
	Players    []PlayerLine
}

// Snapshot is a single live-feed read. It lives for one tick only;
// nothing mutates it after the client builds it.
type Snapshot struct {
	// MatchID is the id the snapshot was fetched for. The feed body
	// carries no match id of its own, so the client stamps it.
	MatchID    string
	Clock      string
	Period     int
	PeriodType string
	InOT       bool
	Finished   bool
	Home       TeamBox
	Away       TeamBox
}

// ClockExhausted reports whether the game clock has run out.
func (s Snapshot) ClockExhausted() bool {
	clock := strings.TrimSpace(s.Clock)
	if clock == "" {
		return false
	}
	for _, r := range clock {
		if r != '0' && r != ':' && r != '.' {
			return false
		}
	}
	return true
}

// Terminal reports whether the snapshot describes a concluded game:
// either the feed flags completion explicitly, or regulation (and any
// overtime) has ended with the clock exhausted.
func (s Snapshot) Terminal() bool {
	if s.Finished {
		return true
	}
	return s.Period >= RegulationPeriods && s.ClockExhausted() && !s.InOT
}

// Digest folds the clock/score identity of the snapshot into a
// comparable string. Two reads of the same frozen box score produce
// the same digest, which is what carryover detection keys on.
func (s Snapshot) Digest() string {
	return fmt.Sprintf("%s|%d|%s|%d|%d", s.Clock, s.Period, s.PeriodType, s.Home.Score, s.Away.Score)
}

// Perspective returns the tracked team's box and the opponent's. The
// live feed identifies teams by name only, so matching is by
// case-insensitive name.
func (s Snapshot) Perspective(teamName string) (team, opponent TeamBox, ok bool) {
	switch {
	case sameName(s.Home.Name, teamName):
		return s.Home, s.Away, true
	case sameName(s.Away.Name, teamName):
		return s.Away, s.Home, true
	default:
		return TeamBox{}, TeamBox{}, false
	}
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// TopScorer is the derived leading scorer for one team box.
type TopScorer struct {
	Name        string
	Points      int
	ShirtNumber int
}

// TopScorerOf picks the player line with the most points. Ties go to
// the lower shirt number so repeated computations stay deterministic.
func TopScorerOf(box TeamBox) (TopScorer, bool) {
	if len(box.Players) == 0 {
		return TopScorer{}, false
	}

	best := box.Players[0]
	for _, p := range box.Players[1:] {
		if p.Points > best.Points {
			best = p
			continue
		}
		if p.Points == best.Points && p.ShirtNumber < best.ShirtNumber {
			best = p
		}
	}

	return TopScorer{
		Name:        best.Name,
		Points:      best.Points,
		ShirtNumber: best.ShirtNumber,
	}, true
}
