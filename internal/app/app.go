package app

import (
	"fmt"
	"net/http"

	"github.com/panjf2000/ants/v2"

	"github.com/ceblhub/team-tracker/external/cebl"
	"github.com/ceblhub/team-tracker/external/genius"
	"github.com/ceblhub/team-tracker/external/webhook"
	"github.com/ceblhub/team-tracker/internal/config"
	"github.com/ceblhub/team-tracker/internal/infrastructure/repository/memory"
	"github.com/ceblhub/team-tracker/internal/interfaces/httpapi"
	"github.com/ceblhub/team-tracker/internal/platform/cache"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
	"github.com/ceblhub/team-tracker/internal/platform/resilience"
	"github.com/ceblhub/team-tracker/internal/usecase"
)

// App wires the per-team polling tracker and its HTTP read surface.
type App struct {
	Server  *http.Server
	Tracker *usecase.TrackerService
	pool    *ants.Pool
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	ceblClient := cebl.NewClient(cebl.ClientConfig{
		BaseURL:    cfg.CEBLBaseURL,
		APIKey:     cfg.CEBLAPIKey,
		Timeout:    cfg.CEBLTimeout,
		MaxRetries: cfg.CEBLMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CEBLCircuitEnabled,
			FailureThreshold: cfg.CEBLCircuitFailureCount,
			OpenTimeout:      cfg.CEBLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CEBLCircuitHalfOpenMaxReq,
		},
	})

	geniusClient := genius.NewClient(genius.ClientConfig{
		BaseURL: cfg.GeniusBaseURL,
		Timeout: cfg.GeniusTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GeniusCircuitEnabled,
			FailureThreshold: cfg.GeniusCircuitFailureCount,
			OpenTimeout:      cfg.GeniusCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GeniusCircuitHalfOpenMaxReq,
		},
	})

	scheduleCache := cache.NewStore(cfg.TrackerScheduleTTL)
	fixtures := usecase.NewFixtureRepository(ceblClient, scheduleCache, usecase.FixtureRepositoryConfig{
		Season:          cfg.CEBLSeason,
		MaxGameDuration: cfg.TrackerMaxGameDuration,
	}, logger)

	states := memory.NewStateRepository()
	validator := usecase.NewStalenessValidator(cfg.TrackerPregameGrace)

	var notifier usecase.TransitionNotifier
	if cfg.WebhookEnabled {
		notifier = webhook.NewPublisher(webhook.PublisherConfig{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.WebhookTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	pool, err := ants.NewPool(cfg.TrackerTickPoolSize)
	if err != nil {
		return nil, fmt.Errorf("create tick pool: %w", err)
	}

	tracker := usecase.NewTrackerService(fixtures, geniusClient, validator, states, notifier, pool, usecase.TrackerConfig{
		TeamIDs:         cfg.CEBLTeamIDs,
		MaxGameDuration: cfg.TrackerMaxGameDuration,
		AbandonTimeout:  cfg.TrackerAbandonTimeout,
		Intervals: usecase.IntervalPolicy{
			Live:       cfg.TrackerLiveInterval,
			Near:       cfg.TrackerNearInterval,
			Idle:       cfg.TrackerIdleInterval,
			NearWindow: cfg.TrackerNearWindow,
		},
	}, logger)

	handler := httpapi.NewHandler(states, fixtures, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:  server,
		Tracker: tracker,
		pool:    pool,
	}, nil
}

// Close releases resources that outlive the HTTP server shutdown.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
}
