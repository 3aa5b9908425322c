package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/ceblhub/team-tracker/internal/platform/logging"
	"github.com/ceblhub/team-tracker/internal/platform/resilience"
	"github.com/ceblhub/team-tracker/internal/usecase"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type PublisherConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher pushes phase-change events to the host platform's webhook
// endpoint. Delivery is best effort: the tracker logs failures and
// moves on, consumers can always read the HTTP surface.
type Publisher struct {
	client         *fasthttp.Client
	url            string
	token          string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewPublisher(cfg PublisherConfig, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Publisher{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		url:            strings.TrimSpace(cfg.URL),
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// NotifyPhaseChange implements usecase.TransitionNotifier.
func (p *Publisher) NotifyPhaseChange(ctx context.Context, change usecase.PhaseChange) error {
	if p.url == "" {
		return crerr.New("webhook url is not configured")
	}

	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("webhook is temporarily unavailable: %w", err)
		}
	}

	body, err := sonic.Marshal(change)
	if err != nil {
		return crerr.Wrap(err, "marshal phase change payload")
	}

	p.logger.DebugContext(ctx, "webhook publish request",
		"team_id", change.TeamID,
		"phase", change.Current,
		"curl_preview", buildCurlPreview(p.url, body, p.token != ""),
	)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		callErr := fmt.Errorf("%w: deliver phase change team=%s: %v", errWebhookTransient, change.TeamID, err)
		p.recordCircuitResult(callErr)
		return callErr
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		var callErr error
		if isRetryableStatus(status) {
			callErr = fmt.Errorf("%w: deliver phase change team=%s status=%d", errWebhookTransient, change.TeamID, status)
		} else {
			callErr = fmt.Errorf("deliver phase change team=%s status=%d", change.TeamID, status)
		}
		p.recordCircuitResult(callErr)
		return callErr
	}

	p.logger.InfoContext(ctx, "phase change delivered",
		"team_id", change.TeamID,
		"from", change.Previous,
		"to", change.Current,
	)
	p.recordCircuitResult(nil)
	return nil
}

func (p *Publisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err != nil && crerr.Is(err, errWebhookTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusRequestTimeout ||
		status == fasthttp.StatusTooManyRequests ||
		status >= fasthttp.StatusInternalServerError
}

func buildCurlPreview(url string, body []byte, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X POST ")
	_, _ = buf.WriteString(shellQuote(url))
	_, _ = buf.WriteString(" -H 'Content-Type: application/json'")
	if withToken {
		_, _ = buf.WriteString(" -H 'Authorization: Bearer ***'")
	}
	_, _ = buf.WriteString(" -d ")
	_, _ = buf.WriteString(shellQuote(truncateForLog(string(body), 2048)))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
