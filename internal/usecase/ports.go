package usecase

import (
	"context"

	"github.com/ceblhub/team-tracker/internal/domain/livegame"
	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
)

// LiveFetcher pulls one live box score by live-match id. Implementations
// return ErrUnavailable (wrapped) for empty feeds, missing matches and
// transport failures, and ErrMalformedPayload for undecodable bodies.
type LiveFetcher interface {
	BoxScore(ctx context.Context, matchID string) (livegame.Snapshot, error)
}

// PhaseChange describes one lifecycle transition for a tracked team.
type PhaseChange struct {
	TeamID   string              `json:"team_id"`
	Previous teamstate.Phase     `json:"previous_phase"`
	Current  teamstate.Phase     `json:"phase"`
	State    teamstate.TeamState `json:"state"`
}

// TransitionNotifier pushes phase changes to the host platform.
type TransitionNotifier interface {
	NotifyPhaseChange(ctx context.Context, change PhaseChange) error
}
