package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/platform/cache"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
)

// FixtureRepositoryConfig carries the schedule-selection policy knobs.
type FixtureRepositoryConfig struct {
	Season          string
	MaxGameDuration time.Duration
}

// FixtureRepository serves each team's current fixture from a cached
// season schedule. The schedule is re-fetched at the cache TTL, far
// less often than the live polling tick; a failed refresh falls back
// to the last good list.
type FixtureRepository struct {
	source fixture.Source
	store  *cache.Store
	cfg    FixtureRepositoryConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewFixtureRepository(source fixture.Source, store *cache.Store, cfg FixtureRepositoryConfig, logger *logging.Logger) *FixtureRepository {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxGameDuration <= 0 {
		cfg.MaxGameDuration = 4 * time.Hour
	}
	return &FixtureRepository{
		source: source,
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// CurrentFixture selects the team's live-or-next fixture. Returns
// ErrNoFixtureAvailable when the team has nothing in the cached window
// and ErrUnavailable when the schedule cannot be fetched and no cached
// copy exists.
func (r *FixtureRepository) CurrentFixture(ctx context.Context, teamID string) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureRepository.CurrentFixture")
	defer span.End()

	fixtures, err := r.teamFixtures(ctx, teamID)
	if err != nil {
		return fixture.Fixture{}, err
	}

	selected, ok := selectCurrentFixture(fixtures, r.now(), r.cfg.MaxGameDuration)
	if !ok {
		return fixture.Fixture{}, fmt.Errorf("%w: team=%s season=%s", ErrNoFixtureAvailable, teamID, r.cfg.Season)
	}

	return selected, nil
}

// ListTeams returns every team appearing in the cached season schedule,
// deduplicated and sorted by name.
func (r *FixtureRepository) ListTeams(ctx context.Context) ([]fixture.TeamRef, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureRepository.ListTeams")
	defer span.End()

	fixtures, err := r.seasonFixtures(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]fixture.TeamRef)
	for _, f := range fixtures {
		seen[f.HomeTeam.ID] = f.HomeTeam
		seen[f.AwayTeam.ID] = f.AwayTeam
	}

	out := make([]fixture.TeamRef, 0, len(seen))
	for _, ref := range seen {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})

	return out, nil
}

func (r *FixtureRepository) teamFixtures(ctx context.Context, teamID string) ([]fixture.Fixture, error) {
	key := fmt.Sprintf("schedule:%s:%s", r.cfg.Season, teamID)
	loader := func(ctx context.Context) (any, error) {
		all, err := r.source.SeasonFixtures(ctx, r.cfg.Season)
		if err != nil {
			return nil, err
		}

		mine := make([]fixture.Fixture, 0, len(all))
		for _, f := range all {
			if f.Involves(teamID) {
				mine = append(mine, f)
			}
		}
		fixture.SortByStart(mine)
		return mine, nil
	}

	return r.loadFixtures(ctx, key, teamID, loader)
}

func (r *FixtureRepository) seasonFixtures(ctx context.Context) ([]fixture.Fixture, error) {
	key := fmt.Sprintf("schedule:%s", r.cfg.Season)
	loader := func(ctx context.Context) (any, error) {
		all, err := r.source.SeasonFixtures(ctx, r.cfg.Season)
		if err != nil {
			return nil, err
		}
		fixture.SortByStart(all)
		return all, nil
	}

	return r.loadFixtures(ctx, key, "", loader)
}

func (r *FixtureRepository) loadFixtures(ctx context.Context, key, teamID string, loader func(context.Context) (any, error)) ([]fixture.Fixture, error) {
	value, err := r.store.GetOrLoad(ctx, key, loader)
	if err != nil {
		if stale, ok := r.store.GetStale(ctx, key); ok {
			r.logger.WarnContext(ctx, "schedule refresh failed, serving stale list",
				"team_id", teamID,
				"season", r.cfg.Season,
				"error", err,
			)
			return stale.([]fixture.Fixture), nil
		}
		return nil, fmt.Errorf("%w: fetch schedule season=%s: %v", ErrUnavailable, r.cfg.Season, err)
	}

	return value.([]fixture.Fixture), nil
}

// selectCurrentFixture picks, in order of preference: the latest fixture
// already started and still inside its live window, the earliest future
// fixture, and finally the latest past fixture so a just-finished game
// keeps its record until the schedule moves on.
func selectCurrentFixture(fixtures []fixture.Fixture, now time.Time, maxGameDuration time.Duration) (fixture.Fixture, bool) {
	var (
		live, upcoming, past       fixture.Fixture
		haveLive, haveUp, havePast bool
	)

	for _, f := range fixtures {
		switch {
		case f.ScheduledStart.After(now):
			if !haveUp || f.ScheduledStart.Before(upcoming.ScheduledStart) {
				upcoming = f
				haveUp = true
			}
		case now.Before(f.ScheduledStart.Add(maxGameDuration)):
			if !haveLive || f.ScheduledStart.After(live.ScheduledStart) {
				live = f
				haveLive = true
			}
		default:
			if !havePast || f.ScheduledStart.After(past.ScheduledStart) {
				past = f
				havePast = true
			}
		}
	}

	switch {
	case haveLive:
		return live, true
	case haveUp:
		return upcoming, true
	case havePast:
		return past, true
	default:
		return fixture.Fixture{}, false
	}
}
