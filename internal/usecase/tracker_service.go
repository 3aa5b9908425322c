package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/domain/livegame"
	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
)

// TrackerConfig carries the polling policy for the tracker loops.
type TrackerConfig struct {
	TeamIDs         []string
	MaxGameDuration time.Duration
	AbandonTimeout  time.Duration
	Intervals       IntervalPolicy
}

// TrackerService runs one polling loop per tracked team. Each tick
// walks the pipeline in dependency order: current fixture, live box
// score, staleness validation, lifecycle resolution, aggregation, and
// finally an atomic publish to the state repository.
type TrackerService struct {
	fixtures  *FixtureRepository
	live      LiveFetcher
	validator *StalenessValidator
	states    teamstate.Repository
	notifier  TransitionNotifier
	pool      *ants.Pool
	cfg       TrackerConfig
	logger    *logging.Logger
	now       func() time.Time

	mu        sync.Mutex
	lastPhase map[string]phaseRecord
}

// phaseRecord pins the remembered phase to a fixture id: a newly
// selected fixture starts a fresh state machine.
type phaseRecord struct {
	fixtureID string
	phase     teamstate.Phase
}

func NewTrackerService(
	fixtures *FixtureRepository,
	live LiveFetcher,
	validator *StalenessValidator,
	states teamstate.Repository,
	notifier TransitionNotifier,
	pool *ants.Pool,
	cfg TrackerConfig,
	logger *logging.Logger,
) *TrackerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxGameDuration <= 0 {
		cfg.MaxGameDuration = 4 * time.Hour
	}
	if cfg.AbandonTimeout <= 0 {
		cfg.AbandonTimeout = time.Hour
	}
	if cfg.Intervals == (IntervalPolicy{}) {
		cfg.Intervals = DefaultIntervalPolicy()
	}

	return &TrackerService{
		fixtures:  fixtures,
		live:      live,
		validator: validator,
		states:    states,
		notifier:  notifier,
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		lastPhase: make(map[string]phaseRecord),
	}
}

// Run starts every team loop and blocks until ctx is cancelled.
func (s *TrackerService) Run(ctx context.Context) {
	var wg conc.WaitGroup
	for _, teamID := range s.cfg.TeamIDs {
		teamID := teamID
		wg.Go(func() {
			s.trackTeam(ctx, teamID)
		})
	}
	wg.Wait()
}

func (s *TrackerService) trackTeam(ctx context.Context, teamID string) {
	s.logger.Info("tracking team", "team_id", teamID)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		interval := s.dispatchTick(ctx, teamID)
		timer.Reset(interval)
	}
}

// dispatchTick runs the tick on the shared worker pool so a stalled
// upstream cannot pile unbounded goroutines across teams. If the pool
// rejects the task the tick runs inline.
func (s *TrackerService) dispatchTick(ctx context.Context, teamID string) time.Duration {
	if s.pool == nil {
		return s.tick(ctx, teamID)
	}

	done := make(chan time.Duration, 1)
	if err := s.pool.Submit(func() {
		done <- s.tick(ctx, teamID)
	}); err != nil {
		s.logger.Warn("tick pool rejected task, running inline", "team_id", teamID, "error", err)
		return s.tick(ctx, teamID)
	}

	select {
	case interval := <-done:
		return interval
	case <-ctx.Done():
		return s.cfg.Intervals.Idle
	}
}

func (s *TrackerService) tick(ctx context.Context, teamID string) time.Duration {
	ctx, span := startUsecaseSpan(ctx, "usecase.TrackerService.tick")
	defer span.End()

	now := s.now()

	fix, err := s.fixtures.CurrentFixture(ctx, teamID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoFixtureAvailable):
			s.logger.DebugContext(ctx, "team idle, no fixture in window", "team_id", teamID)
		default:
			s.logger.WarnContext(ctx, "fixture lookup failed, retaining previous state", "team_id", teamID, "error", err)
		}
		return s.cfg.Intervals.Idle
	}

	snap, liveGap := s.fetchLive(ctx, teamID, fix, now)

	prev := s.previousPhase(teamID, fix.ID)
	phase := ResolvePhase(prev, ResolveInput{
		ScheduledStart:  fix.ScheduledStart,
		HasPayload:      snap != nil,
		Terminal:        snap != nil && snap.Terminal(),
		Now:             now,
		MaxGameDuration: s.cfg.MaxGameDuration,
		AbandonTimeout:  s.cfg.AbandonTimeout,
	})
	interval := s.cfg.Intervals.NextInterval(phase, fix.ScheduledStart.Sub(now))

	// Transient live-feed gap with no phase movement: keep the previous
	// record so consumers see the last good scores, not a blank tick.
	if liveGap && prev == phase {
		s.logger.DebugContext(ctx, "live feed gap, retaining previous state",
			"team_id", teamID,
			"fixture_id", fix.ID,
			"phase", phase,
		)
		return interval
	}

	state := BuildTeamState(BuildInput{
		TeamID:       teamID,
		Fixture:      fix,
		Phase:        phase,
		Snapshot:     snap,
		Now:          now,
		PollInterval: interval,
	})

	if err := s.states.Put(ctx, state); err != nil {
		s.logger.ErrorContext(ctx, "publish team state failed", "team_id", teamID, "error", err)
		return interval
	}

	if prev != "" && prev != phase {
		s.logger.InfoContext(ctx, "phase transition",
			"team_id", teamID,
			"fixture_id", fix.ID,
			"from", prev,
			"to", phase,
		)
		s.notifyChange(ctx, PhaseChange{
			TeamID:   teamID,
			Previous: prev,
			Current:  phase,
			State:    state,
		})
	}

	s.rememberPhase(teamID, fix.ID, phase)
	return interval
}

// fetchLive returns the validated snapshot for the tick, or nil. The
// second return value marks a transient feed gap as opposed to a
// rejected payload or a fixture with no live reference yet.
func (s *TrackerService) fetchLive(ctx context.Context, teamID string, fix fixture.Fixture, now time.Time) (*livegame.Snapshot, bool) {
	if !fix.HasLiveFeed() {
		return nil, false
	}

	snap, err := s.live.BoxScore(ctx, fix.LiveMatchID)
	if err != nil {
		s.logger.DebugContext(ctx, "live feed unavailable",
			"team_id", teamID,
			"match_id", fix.LiveMatchID,
			"error", err,
		)
		return nil, true
	}

	if err := s.validator.Validate(teamID, fix, snap, now); err != nil {
		s.logger.WarnContext(ctx, "live payload rejected",
			"team_id", teamID,
			"match_id", fix.LiveMatchID,
			"reason", err,
		)
		return nil, false
	}

	return &snap, false
}

func (s *TrackerService) previousPhase(teamID, fixtureID string) teamstate.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.lastPhase[teamID]
	if !ok || rec.fixtureID != fixtureID {
		return ""
	}
	return rec.phase
}

func (s *TrackerService) rememberPhase(teamID, fixtureID string, phase teamstate.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPhase[teamID] = phaseRecord{fixtureID: fixtureID, phase: phase}
}

func (s *TrackerService) notifyChange(ctx context.Context, change PhaseChange) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPhaseChange(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "phase change notification failed",
			"team_id", change.TeamID,
			"to", change.Current,
			"error", err,
		)
	}
}
