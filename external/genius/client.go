package genius

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/ceblhub/team-tracker/internal/domain/livegame"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
	"github.com/ceblhub/team-tracker/internal/platform/resilience"
	"github.com/ceblhub/team-tracker/internal/usecase"
)

const defaultBaseURL = "https://fibalivestats.dcd.shared.geniussports.com"

var errGeniusTransient = crerr.New("genius transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the live-stats box score feed. It sits on the hot
// 30-second polling path, so there are no in-call retries: a failed
// read reports ErrUnavailable and the next tick tries again.
type Client struct {
	httpClient     *http.Client
	baseURL        string
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
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// BoxScore fetches one live box score. Implements usecase.LiveFetcher.
// A 404, an empty body, or a document missing either team block all
// come back as ErrUnavailable; only an undecodable body is
// ErrMalformedPayload. Both degrade the tick the same way upstream.
func (c *Client) BoxScore(ctx context.Context, matchID string) (livegame.Snapshot, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return livegame.Snapshot{}, fmt.Errorf("match id is required")
	}

	path := fmt.Sprintf("/data/%s/data.json", matchID)
	raw, err := c.doRequest(ctx, path)
	if err != nil {
		return livegame.Snapshot{}, err
	}

	if len(raw) == 0 {
		return livegame.Snapshot{}, fmt.Errorf("%w: empty live feed for match %s", usecase.ErrUnavailable, matchID)
	}

	var payload boxScorePayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return livegame.Snapshot{}, fmt.Errorf("%w: decode box score match=%s: %v", usecase.ErrMalformedPayload, matchID, err)
	}

	snap, ok := payload.toSnapshot(matchID)
	if !ok {
		return livegame.Snapshot{}, fmt.Errorf("%w: live feed missing team blocks for match %s", usecase.ErrUnavailable, matchID)
	}

	return snap, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "genius circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: live feed is temporarily unavailable", usecase.ErrUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errGeniusTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrUnavailable, err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected response payload type %T", usecase.ErrUnavailable, out)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", errGeniusTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errGeniusTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusNotFound:
		// Match not published yet; routine before tip-off.
		return nil, fmt.Errorf("match not found upstream")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: feed status=%d", errGeniusTransient, resp.StatusCode)
	default:
		return nil, fmt.Errorf("feed status=%d", resp.StatusCode)
	}
}
