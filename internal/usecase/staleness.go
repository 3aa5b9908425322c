package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/domain/livegame"
)

// StalenessValidator guards against the live feed serving a previous
// game's box score against an upcoming fixture. It keeps only the last
// accepted match id and clock/score digest per team.
type StalenessValidator struct {
	grace time.Duration

	mu          sync.Mutex
	lastMatchID map[string]string
	lastDigest  map[string]string
}

func NewStalenessValidator(preGameGrace time.Duration) *StalenessValidator {
	if preGameGrace <= 0 {
		preGameGrace = 10 * time.Minute
	}
	return &StalenessValidator{
		grace:       preGameGrace,
		lastMatchID: make(map[string]string),
		lastDigest:  make(map[string]string),
	}
}

// Validate returns nil when the payload belongs to the selected
// fixture's live window, or an ErrStaleRejected-wrapped error naming
// the rejection reason. Accepted payloads update the per-team memory.
func (v *StalenessValidator) Validate(teamID string, fix fixture.Fixture, snap livegame.Snapshot, now time.Time) error {
	if snap.MatchID != fix.LiveMatchID {
		return fmt.Errorf("%w: match identity mismatch payload=%s fixture=%s", ErrStaleRejected, snap.MatchID, fix.LiveMatchID)
	}

	if now.Before(fix.ScheduledStart.Add(-v.grace)) {
		return fmt.Errorf("%w: payload %s before scheduled start, outside grace window", ErrStaleRejected, fix.ScheduledStart.Sub(now).Truncate(time.Second))
	}

	digest := snap.Digest()

	v.mu.Lock()
	defer v.mu.Unlock()

	if prevID, ok := v.lastMatchID[teamID]; ok && prevID != fix.LiveMatchID && v.lastDigest[teamID] == digest {
		return fmt.Errorf("%w: clock/score snapshot identical to last seen for match %s", ErrStaleRejected, prevID)
	}

	v.lastMatchID[teamID] = fix.LiveMatchID
	v.lastDigest[teamID] = digest
	return nil
}
