package cebl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
	"github.com/ceblhub/team-tracker/internal/platform/resilience"
	"github.com/ceblhub/team-tracker/internal/usecase"
)

const defaultBaseURL = "https://api.data.cebl.ca"

var errCEBLTransient = crerr.New("cebl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the league's games API. It is the schedule side of
// the tracker: slow-moving data, fetched rarely, guarded by a breaker
// so a flapping feed cannot stack retries.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// SeasonFixtures fetches the full season schedule. Implements
// fixture.Source.
func (c *Client) SeasonFixtures(ctx context.Context, season string) ([]fixture.Fixture, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return nil, fmt.Errorf("season is required")
	}

	path := "/games/" + season
	raw, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var games []gameRecord
	if err := sonic.Unmarshal(raw, &games); err != nil {
		return nil, fmt.Errorf("%w: decode games payload: %v", usecase.ErrMalformedPayload, err)
	}

	out := make([]fixture.Fixture, 0, len(games))
	for _, game := range games {
		f, ok := game.toFixture(season)
		if !ok {
			c.logger.DebugContext(ctx, "skipping malformed game record", "game_id", game.ID)
			continue
		}
		out = append(out, f)
	}

	c.logger.DebugContext(ctx, "fetched season schedule", "season", season, "games", len(out))
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "cebl circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fixtures feed is temporarily unavailable", usecase.ErrUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errCEBLTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", usecase.ErrUnavailable, sanitizeSensitiveText(err.Error(), c.apiKey))
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response payload type %T", usecase.ErrUnavailable, out)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errCEBLTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errCEBLTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d", errCEBLTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("feed status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "cebl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sanitizeSensitiveText(value, key string) string {
	value = strings.TrimSpace(value)
	if value == "" || key == "" {
		return value
	}
	return strings.ReplaceAll(value, key, "REDACTED")
}
