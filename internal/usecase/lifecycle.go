package usecase

import (
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
)

// ResolveInput is everything the lifecycle decision needs for one tick.
// HasPayload and Terminal describe the validated live payload only; a
// rejected or missing payload means HasPayload is false.
type ResolveInput struct {
	ScheduledStart  time.Time
	HasPayload      bool
	Terminal        bool
	Now             time.Time
	MaxGameDuration time.Duration
	AbandonTimeout  time.Duration
}

// ResolvePhase computes the fixture's phase. It is pure and idempotent;
// prev matters only for POST stickiness and for keeping a game IN
// through between-period feed gaps. A fresh fixture passes prev as "".
//
// The abandonment fail-safe fires regardless of prev so a game whose
// feed never came up still resolves to POST once the window plus
// timeout has fully elapsed.
func ResolvePhase(prev teamstate.Phase, in ResolveInput) teamstate.Phase {
	if prev == teamstate.PhasePost {
		return teamstate.PhasePost
	}

	if in.HasPayload {
		if in.Terminal {
			return teamstate.PhasePost
		}
		return teamstate.PhaseIn
	}

	deadline := in.ScheduledStart.Add(in.MaxGameDuration).Add(in.AbandonTimeout)
	if in.Now.After(deadline) {
		return teamstate.PhasePost
	}

	if prev == teamstate.PhaseIn {
		return teamstate.PhaseIn
	}

	return teamstate.PhasePre
}
