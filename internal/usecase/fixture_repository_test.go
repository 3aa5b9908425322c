package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/platform/cache"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
)

type stubScheduleSource struct {
	fixtures []fixture.Fixture
	err      error
	calls    int
}

func (s *stubScheduleSource) SeasonFixtures(context.Context, string) ([]fixture.Fixture, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]fixture.Fixture, len(s.fixtures))
	copy(out, s.fixtures)
	return out, nil
}

func scheduleFixture(id, home, away string, start time.Time) fixture.Fixture {
	return fixture.Fixture{
		ID:             id,
		Season:         "2026",
		HomeTeam:       fixture.TeamRef{ID: home, Name: "Team " + home},
		AwayTeam:       fixture.TeamRef{ID: away, Name: "Team " + away},
		ScheduledStart: start,
	}
}

func newTestFixtureRepository(source fixture.Source) *FixtureRepository {
	return NewFixtureRepository(source, cache.NewStore(time.Hour), FixtureRepositoryConfig{
		Season:          "2026",
		MaxGameDuration: 4 * time.Hour,
	}, logging.NewNop())
}

func TestFixtureRepository_SelectsLiveOverUpcoming(t *testing.T) {
	now := time.Date(2026, 6, 12, 23, 30, 0, 0, time.UTC)
	source := &stubScheduleSource{fixtures: []fixture.Fixture{
		scheduleFixture("past", "12", "56", now.Add(-72*time.Hour)),
		scheduleFixture("live", "12", "34", now.Add(-30*time.Minute)),
		scheduleFixture("next", "78", "12", now.Add(48*time.Hour)),
	}}

	repo := newTestFixtureRepository(source)
	repo.now = func() time.Time { return now }

	got, err := repo.CurrentFixture(context.Background(), "12")
	if err != nil {
		t.Fatalf("CurrentFixture: %v", err)
	}
	if got.ID != "live" {
		t.Fatalf("selected %q, want the in-window fixture", got.ID)
	}
}

func TestFixtureRepository_FallsBackToEarliestUpcoming(t *testing.T) {
	now := time.Date(2026, 6, 12, 12, 0, 0, 0, time.UTC)
	source := &stubScheduleSource{fixtures: []fixture.Fixture{
		scheduleFixture("later", "12", "78", now.Add(96*time.Hour)),
		scheduleFixture("sooner", "34", "12", now.Add(24*time.Hour)),
	}}

	repo := newTestFixtureRepository(source)
	repo.now = func() time.Time { return now }

	got, err := repo.CurrentFixture(context.Background(), "12")
	if err != nil {
		t.Fatalf("CurrentFixture: %v", err)
	}
	if got.ID != "sooner" {
		t.Fatalf("selected %q, want the earliest upcoming fixture", got.ID)
	}
}

func TestFixtureRepository_RetainsLatestPastWhenSeasonOver(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	source := &stubScheduleSource{fixtures: []fixture.Fixture{
		scheduleFixture("semifinal", "12", "34", now.Add(-10*24*time.Hour)),
		scheduleFixture("final", "12", "56", now.Add(-7*24*time.Hour)),
	}}

	repo := newTestFixtureRepository(source)
	repo.now = func() time.Time { return now }

	got, err := repo.CurrentFixture(context.Background(), "12")
	if err != nil {
		t.Fatalf("CurrentFixture: %v", err)
	}
	if got.ID != "final" {
		t.Fatalf("selected %q, want the latest past fixture", got.ID)
	}
}

func TestFixtureRepository_NoFixtures(t *testing.T) {
	source := &stubScheduleSource{}
	repo := newTestFixtureRepository(source)

	_, err := repo.CurrentFixture(context.Background(), "12")
	if !errors.Is(err, ErrNoFixtureAvailable) {
		t.Fatalf("expected ErrNoFixtureAvailable, got %v", err)
	}
}

func TestFixtureRepository_ServesStaleListOnRefreshFailure(t *testing.T) {
	now := time.Date(2026, 6, 12, 12, 0, 0, 0, time.UTC)
	source := &stubScheduleSource{fixtures: []fixture.Fixture{
		scheduleFixture("next", "12", "34", now.Add(24*time.Hour)),
	}}

	store := cache.NewStore(10 * time.Millisecond)
	repo := NewFixtureRepository(source, store, FixtureRepositoryConfig{
		Season:          "2026",
		MaxGameDuration: 4 * time.Hour,
	}, logging.NewNop())
	repo.now = func() time.Time { return now }

	if _, err := repo.CurrentFixture(context.Background(), "12"); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	// TTL expires and the feed goes down; the last good list is served.
	source.err = errors.New("503 from feed")
	time.Sleep(20 * time.Millisecond)

	got, err := repo.CurrentFixture(context.Background(), "12")
	if err != nil {
		t.Fatalf("expected stale serve, got %v", err)
	}
	if got.ID != "next" {
		t.Fatalf("selected %q from stale list", got.ID)
	}
}

func TestFixtureRepository_UnavailableWithoutCache(t *testing.T) {
	source := &stubScheduleSource{err: errors.New("connection refused")}
	repo := newTestFixtureRepository(source)

	_, err := repo.CurrentFixture(context.Background(), "12")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFixtureRepository_ListTeamsDeduplicates(t *testing.T) {
	now := time.Date(2026, 6, 12, 12, 0, 0, 0, time.UTC)
	source := &stubScheduleSource{fixtures: []fixture.Fixture{
		scheduleFixture("a", "12", "34", now),
		scheduleFixture("b", "34", "12", now.Add(48*time.Hour)),
		scheduleFixture("c", "12", "56", now.Add(96*time.Hour)),
	}}

	repo := newTestFixtureRepository(source)

	teams, err := repo.ListTeams(context.Background())
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("got %d teams, want 3", len(teams))
	}
	for i := 1; i < len(teams); i++ {
		if teams[i-1].Name > teams[i].Name {
			t.Fatalf("teams not sorted: %q before %q", teams[i-1].Name, teams[i].Name)
		}
	}
}
