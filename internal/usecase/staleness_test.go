package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/domain/livegame"
)

func stalenessFixture(liveMatchID string, start time.Time) fixture.Fixture {
	return fixture.Fixture{
		ID:             "game-301",
		Season:         "2026",
		HomeTeam:       fixture.TeamRef{ID: "12", Name: "Niagara River Lions"},
		AwayTeam:       fixture.TeamRef{ID: "34", Name: "Calgary Surge"},
		ScheduledStart: start,
		LiveMatchID:    liveMatchID,
	}
}

func TestStalenessValidator_MatchIdentityMismatch(t *testing.T) {
	start := time.Date(2026, 6, 12, 23, 0, 0, 0, time.UTC)
	v := NewStalenessValidator(10 * time.Minute)

	snap := livegame.Snapshot{MatchID: "OLD123", Clock: "00:00", Period: 4}
	err := v.Validate("12", stalenessFixture("NEW456", start), snap, start.Add(time.Hour))
	if !errors.Is(err, ErrStaleRejected) {
		t.Fatalf("expected rejection for mismatched match id, got %v", err)
	}

	// Timing never rescues an identity mismatch.
	err = v.Validate("12", stalenessFixture("NEW456", start), snap, start.Add(-48*time.Hour))
	if !errors.Is(err, ErrStaleRejected) {
		t.Fatalf("expected rejection regardless of timing, got %v", err)
	}
}

func TestStalenessValidator_ImplausiblyEarlyPayload(t *testing.T) {
	start := time.Date(2026, 6, 12, 23, 0, 0, 0, time.UTC)
	v := NewStalenessValidator(10 * time.Minute)
	snap := livegame.Snapshot{MatchID: "2357845", Clock: "10:00", Period: 1}

	err := v.Validate("12", stalenessFixture("2357845", start), snap, start.Add(-2*time.Hour))
	if !errors.Is(err, ErrStaleRejected) {
		t.Fatalf("expected rejection two hours before start, got %v", err)
	}

	// Inside the grace window the same payload is fine (early tip-off).
	if err := v.Validate("12", stalenessFixture("2357845", start), snap, start.Add(-5*time.Minute)); err != nil {
		t.Fatalf("expected acceptance in grace window, got %v", err)
	}
}

func TestStalenessValidator_CarryoverBoxScore(t *testing.T) {
	v := NewStalenessValidator(10 * time.Minute)

	oldStart := time.Date(2026, 6, 10, 23, 0, 0, 0, time.UTC)
	finalSnap := livegame.Snapshot{
		MatchID: "2357800",
		Clock:   "00:00",
		Period:  4,
		Home:    livegame.TeamBox{Score: 98},
		Away:    livegame.TeamBox{Score: 91},
	}
	if err := v.Validate("12", stalenessFixture("2357800", oldStart), finalSnap, oldStart.Add(2*time.Hour)); err != nil {
		t.Fatalf("final payload of the old game should be accepted: %v", err)
	}

	// Two days later the feed still serves the old final box score, now
	// under the new fixture's match id.
	newStart := time.Date(2026, 6, 12, 23, 0, 0, 0, time.UTC)
	carried := finalSnap
	carried.MatchID = "2357845"
	err := v.Validate("12", stalenessFixture("2357845", newStart), carried, newStart.Add(time.Minute))
	if !errors.Is(err, ErrStaleRejected) {
		t.Fatalf("expected carryover rejection, got %v", err)
	}

	// A genuinely fresh payload for the new match is accepted.
	fresh := livegame.Snapshot{MatchID: "2357845", Clock: "09:12", Period: 1, Home: livegame.TeamBox{Score: 4}, Away: livegame.TeamBox{Score: 2}}
	if err := v.Validate("12", stalenessFixture("2357845", newStart), fresh, newStart.Add(5*time.Minute)); err != nil {
		t.Fatalf("fresh payload should be accepted: %v", err)
	}
}

func TestStalenessValidator_TeamsAreIndependent(t *testing.T) {
	v := NewStalenessValidator(10 * time.Minute)
	start := time.Date(2026, 6, 12, 23, 0, 0, 0, time.UTC)
	snap := livegame.Snapshot{MatchID: "2357845", Clock: "05:00", Period: 2}

	if err := v.Validate("12", stalenessFixture("2357845", start), snap, start.Add(time.Hour)); err != nil {
		t.Fatalf("team 12 accept: %v", err)
	}
	if err := v.Validate("34", stalenessFixture("2357845", start), snap, start.Add(time.Hour)); err != nil {
		t.Fatalf("team 34 accept: %v", err)
	}
}
