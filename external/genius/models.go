package genius

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ceblhub/team-tracker/internal/domain/livegame"
)

// boxScorePayload mirrors the live-stats data.json document. The feed
// keys the two sides as tm.1 (home) and tm.2 (away).
type boxScorePayload struct {
	Clock       string                 `json:"clock"`
	Period      int                    `json:"period"`
	PeriodType  string                 `json:"periodType"`
	InOT        int                    `json:"inOTNow"`
	MatchStatus string                 `json:"matchStatus"`
	Teams       map[string]teamPayload `json:"tm"`
}

type teamPayload struct {
	Name          string                   `json:"name"`
	Score         int                      `json:"score"`
	FieldGoalPct  float64                  `json:"tot_sFieldGoalsPercentage"`
	ThreePointPct float64                  `json:"tot_sThreePointersPercentage"`
	FreeThrowPct  float64                  `json:"tot_sFreeThrowsPercentage"`
	Rebounds      int                      `json:"tot_sReboundsTotal"`
	Assists       int                      `json:"tot_sAssists"`
	Turnovers     int                      `json:"tot_sTurnovers"`
	Steals        int                      `json:"tot_sSteals"`
	Blocks        int                      `json:"tot_sBlocks"`
	Players       map[string]playerPayload `json:"pl"`
}

type playerPayload struct {
	Name        string `json:"name"`
	FirstName   string `json:"firstName"`
	FamilyName  string `json:"familyName"`
	ShirtNumber string `json:"shirtNumber"`
	Points      int    `json:"sPoints"`
	Rebounds    int    `json:"sReboundsTotal"`
	Assists     int    `json:"sAssists"`
	Minutes     string `json:"sMinutes"`
}

func (p boxScorePayload) toSnapshot(matchID string) (livegame.Snapshot, bool) {
	home, homeOK := p.Teams["1"]
	away, awayOK := p.Teams["2"]
	if !homeOK || !awayOK {
		return livegame.Snapshot{}, false
	}

	return livegame.Snapshot{
		MatchID:    matchID,
		Clock:      strings.TrimSpace(p.Clock),
		Period:     p.Period,
		PeriodType: strings.TrimSpace(p.PeriodType),
		InOT:       p.InOT != 0,
		Finished:   strings.EqualFold(p.MatchStatus, "COMPLETE"),
		Home:       home.toBox(),
		Away:       away.toBox(),
	}, true
}

func (t teamPayload) toBox() livegame.TeamBox {
	box := livegame.TeamBox{
		Name:  strings.TrimSpace(t.Name),
		Score: t.Score,
		Statistics: livegame.Statistics{
			FieldGoalPct:  t.FieldGoalPct,
			ThreePointPct: t.ThreePointPct,
			FreeThrowPct:  t.FreeThrowPct,
			Rebounds:      t.Rebounds,
			Assists:       t.Assists,
			Turnovers:     t.Turnovers,
			Steals:        t.Steals,
			Blocks:        t.Blocks,
		},
	}

	box.Players = make([]livegame.PlayerLine, 0, len(t.Players))
	for _, p := range t.Players {
		box.Players = append(box.Players, p.toLine())
	}
	// The feed keys players by an arbitrary roster index; order by
	// shirt number so downstream tie-breaks are reproducible.
	sort.Slice(box.Players, func(i, j int) bool {
		return box.Players[i].ShirtNumber < box.Players[j].ShirtNumber
	})

	return box
}

func (p playerPayload) toLine() livegame.PlayerLine {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.FamilyName))
	}

	shirt, _ := strconv.Atoi(strings.TrimSpace(p.ShirtNumber))

	return livegame.PlayerLine{
		Name:        name,
		ShirtNumber: shirt,
		Points:      p.Points,
		Rebounds:    p.Rebounds,
		Assists:     p.Assists,
		Minutes:     strings.TrimSpace(p.Minutes),
	}
}
