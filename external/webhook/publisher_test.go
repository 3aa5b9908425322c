package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
	"github.com/ceblhub/team-tracker/internal/platform/resilience"
	"github.com/ceblhub/team-tracker/internal/usecase"
)

func sampleChange() usecase.PhaseChange {
	return usecase.PhaseChange{
		TeamID:   "11",
		Previous: teamstate.PhasePre,
		Current:  teamstate.PhaseIn,
		State: teamstate.TeamState{
			TeamID:   "11",
			TeamName: "Brampton Honey Badgers",
			Phase:    teamstate.PhaseIn,
		},
	}
}

func TestNotifyPhaseChange_DeliversPayload(t *testing.T) {
	t.Parallel()

	var (
		gotAuth        string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	pub := NewPublisher(PublisherConfig{
		URL:            server.URL,
		Token:          "hook-token",
		Timeout:        2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, nil)

	if err := pub.NotifyPhaseChange(context.Background(), sampleChange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer hook-token" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}

	var decoded usecase.PhaseChange
	if err := sonic.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode delivered body: %v", err)
	}
	if decoded.TeamID != "11" || decoded.Previous != teamstate.PhasePre || decoded.Current != teamstate.PhaseIn {
		t.Fatalf("unexpected delivered change %+v", decoded)
	}
}

func TestNotifyPhaseChange_ServerErrorOpensCircuit(t *testing.T) {
	t.Parallel()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	pub := NewPublisher(PublisherConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := pub.NotifyPhaseChange(ctx, sampleChange()); err == nil {
			t.Fatal("expected delivery error")
		}
	}
	before := calls
	if err := pub.NotifyPhaseChange(ctx, sampleChange()); err == nil {
		t.Fatal("expected open-circuit rejection")
	}
	if calls != before {
		t.Fatalf("expected no delivery attempt while circuit open, got %d extra", calls-before)
	}
}

func TestNotifyPhaseChange_ClientErrorDoesNotTripCircuit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	t.Cleanup(server.Close)

	pub := NewPublisher(PublisherConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := pub.NotifyPhaseChange(ctx, sampleChange()); err == nil {
			t.Fatal("expected delivery error")
		}
	}
	if state := pub.breaker.State(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected circuit to stay closed on 4xx, got %s", state)
	}
}

func TestNotifyPhaseChange_MissingURL(t *testing.T) {
	t.Parallel()

	pub := NewPublisher(PublisherConfig{}, nil)
	if err := pub.NotifyPhaseChange(context.Background(), sampleChange()); err == nil {
		t.Fatal("expected error for unconfigured url")
	}
}

func TestBuildCurlPreview_RedactsToken(t *testing.T) {
	t.Parallel()

	preview := buildCurlPreview("https://hooks.example/cebl", []byte(`{"team_id":"11"}`), true)
	want := `curl -X POST 'https://hooks.example/cebl' -H 'Content-Type: application/json' -H 'Authorization: Bearer ***' -d '{"team_id":"11"}'`
	if preview != want {
		t.Fatalf("unexpected preview:\n got %s\nwant %s", preview, want)
	}
}
