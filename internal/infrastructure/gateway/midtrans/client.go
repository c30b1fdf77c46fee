package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/platform/resilience"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

const (
	SandboxBaseURL    = "https://api.sandbox.midtrans.com"
	ProductionBaseURL = "https://api.midtrans.com"

	expiryTimeLayout = "2006-01-02 15:04:05"
)

var errMidtransTransient = crerr.New("midtrans transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	ServerKey      string
	Timeout        time.Duration
	StatusRetries  int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Midtrans Core API. Charges go out exactly once;
// only status lookups retry, because re-charging a failed call could bill
// the payer twice.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	authorization  string
	serverKey      string
	statusRetries  int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
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
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
	}

	serverKey := strings.TrimSpace(cfg.ServerKey)
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		authorization:  "Basic " + base64.StdEncoding.EncodeToString([]byte(serverKey+":")),
		serverKey:      serverKey,
		statusRetries:  maxInt(cfg.StatusRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Charge(ctx context.Context, req usecase.GatewayChargeRequest) (usecase.GatewayTransaction, error) {
	payload := buildChargePayload(req)
	body, err := sonic.Marshal(payload)
	if err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("encode charge payload: %w", err)
	}

	var envelope transactionEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/v2/charge", body, 0, &envelope); err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("charge order_id=%s: %w", req.OrderID, err)
	}
	if err := envelope.chargeError(); err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("charge order_id=%s: %w", req.OrderID, err)
	}

	return envelope.toTransaction(), nil
}

func (c *Client) TransactionStatus(ctx context.Context, orderID string) (usecase.GatewayTransaction, error) {
	var envelope transactionEnvelope
	path := "/v2/" + orderID + "/status"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, c.statusRetries, &envelope); err != nil {
		return usecase.GatewayTransaction{}, fmt.Errorf("status order_id=%s: %w", orderID, err)
	}
	if envelope.StatusCode == "404" {
		return usecase.GatewayTransaction{}, fmt.Errorf("status order_id=%s: transaction does not exist", orderID)
	}

	return envelope.toTransaction(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, retries int, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "midtrans circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: payment gateway is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.executeRequest(ctx, method, c.baseURL+path, body, retries)
	if c.circuitEnabled {
		if err != nil && isCircuitFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode gateway payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL string, body []byte, retries int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", c.authorization)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errMidtransTransient, sanitizeServerKey(err.Error(), c.serverKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errMidtransTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: gateway status=%d body=%s", errMidtransTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("gateway status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == retries {
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
		lastErr = fmt.Errorf("gateway request failed")
	}
	c.logger.WarnContext(ctx, "midtrans request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errMidtransTransient)
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sanitizeServerKey(text, serverKey string) string {
	if serverKey == "" {
		return text
	}

	return strings.ReplaceAll(text, serverKey, "[REDACTED]")
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}

	return string(raw)
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}

	return right
}
