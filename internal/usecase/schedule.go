package usecase

import (
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
)

// IntervalPolicy maps a resolved phase to the next polling interval.
// It never consults the wall clock itself; the caller passes the time
// remaining until kickoff.
type IntervalPolicy struct {
	Live       time.Duration
	Near       time.Duration
	Idle       time.Duration
	NearWindow time.Duration
}

func DefaultIntervalPolicy() IntervalPolicy {
	return IntervalPolicy{
		Live:       30 * time.Second,
		Near:       time.Minute,
		Idle:       10 * time.Minute,
		NearWindow: 30 * time.Minute,
	}
}

func (p IntervalPolicy) NextInterval(phase teamstate.Phase, untilKickoff time.Duration) time.Duration {
	switch phase {
	case teamstate.PhaseIn:
		return p.Live
	case teamstate.PhasePre:
		if untilKickoff <= p.NearWindow {
			return p.Near
		}
		return p.Idle
	default:
		return p.Idle
	}
}
