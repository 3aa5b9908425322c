package cebl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ceblhub/team-tracker/internal/platform/logging"
	"github.com/ceblhub/team-tracker/internal/platform/resilience"
	"github.com/ceblhub/team-tracker/internal/usecase"
)

const seasonFeedBody = `[
	{
		"id": 3101,
		"season": 2025,
		"start_time_utc": "2025-06-14T23:00:00Z",
		"venue_name": "CAA Centre",
		"home_team_id": 11,
		"home_team_name": "Brampton Honey Badgers",
		"home_team_logo_url": "https://cdn.example/bhb.png",
		"away_team_id": 14,
		"away_team_name": "Ottawa BlackJacks",
		"away_team_logo_url": "https://cdn.example/obj.png",
		"fiba_live_stats_id": 2546780
	},
	{
		"id": 3102,
		"season": 2025,
		"start_time_utc": "2025-06-20T00:30:00",
		"venue_name": "TD Place",
		"home_team_id": 14,
		"home_team_name": "Ottawa BlackJacks",
		"away_team_id": 11,
		"away_team_name": "Brampton Honey Badgers",
		"fiba_live_stats_id": 0
	},
	{
		"id": 0,
		"season": 2025,
		"start_time_utc": "not-a-time",
		"home_team_id": 0,
		"away_team_id": 0
	}
]`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
	return client, server
}

func TestSeasonFixtures_MapsFeedRecords(t *testing.T) {
	t.Parallel()

	var gotKey string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		if r.URL.Path != "/games/2025" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seasonFeedBody))
	}))

	fixtures, err := client.SeasonFixtures(context.Background(), "2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected malformed record skipped, got %d fixtures", len(fixtures))
	}

	first := fixtures[0]
	if first.ID != "3101" {
		t.Fatalf("expected id=3101, got %q", first.ID)
	}
	if first.HomeTeam.ID != "11" || first.HomeTeam.Name != "Brampton Honey Badgers" {
		t.Fatalf("unexpected home team %+v", first.HomeTeam)
	}
	if first.LiveMatchID != "2546780" {
		t.Fatalf("expected live match id mapped, got %q", first.LiveMatchID)
	}
	if !first.ScheduledStart.Equal(time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", first.ScheduledStart)
	}

	second := fixtures[1]
	if second.LiveMatchID != "" {
		t.Fatalf("expected empty live match id before assignment, got %q", second.LiveMatchID)
	}
	if !second.ScheduledStart.Equal(time.Date(2025, 6, 20, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected zoneless timestamp read as UTC, got %v", second.ScheduledStart)
	}
}

func TestSeasonFixtures_MalformedBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))

	_, err := client.SeasonFixtures(context.Background(), "2025")
	if !errors.Is(err, usecase.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestSeasonFixtures_ServerErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.SeasonFixtures(context.Background(), "2025")
	if !errors.Is(err, usecase.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSeasonFixtures_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		Timeout:        2 * time.Second,
		MaxRetries:     1,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	fixtures, err := client.SeasonFixtures(context.Background(), "2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if len(fixtures) != 0 {
		t.Fatalf("expected empty schedule, got %d", len(fixtures))
	}
}

func TestSeasonFixtures_OpenCircuitShortCircuits(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.SeasonFixtures(ctx, "2025"); !errors.Is(err, usecase.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	}
	before := calls
	if _, err := client.SeasonFixtures(ctx, "2025"); !errors.Is(err, usecase.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from open circuit, got %v", err)
	}
	if calls != before {
		t.Fatalf("expected no upstream call while circuit open, got %d extra", calls-before)
	}
}

func TestSanitizeSensitiveText(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText("Get https://x?key=secret-key failed", "secret-key")
	if got != "Get https://x?key=REDACTED failed" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}
