package eventfeed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

const dedupHeader = "X-Dedup-Id"

type PublisherConfig struct {
	HTTPClient *http.Client
	// Endpoint receives one POSTed JSON document per change event.
	Endpoint   string
	AuthToken  string
	MaxRetries int
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Publisher delivers change events to the realtime feed consumer over HTTP.
// Delivery is at-least-once with bounded retries; the dedup id header lets
// the consumer drop redeliveries.
type Publisher struct {
	httpClient *http.Client
	endpoint   string
	authToken  string
	maxRetries int
	logger     *logging.Logger
}

func NewPublisher(cfg PublisherConfig) *Publisher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 5 * time.Second
	}

	return &Publisher{
		httpClient: httpClient,
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

type eventDocument struct {
	Type       string `json:"type"`
	Action     string `json:"action"`
	StreamerID string `json:"streamer_id"`
	Payload    any    `json:"payload"`
	EmittedAt  string `json:"emitted_at"`
}

func (p *Publisher) Publish(ctx context.Context, event usecase.ChangeEvent) error {
	if p.endpoint == "" {
		return nil
	}

	body, err := sonic.Marshal(eventDocument{
		Type:       event.Type,
		Action:     event.Action,
		StreamerID: event.StreamerID,
		Payload:    event.Payload,
		EmittedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build publish request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if event.DedupID != "" {
			req.Header.Set(dedupHeader, event.DedupID)
		}
		if p.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+p.authToken)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send change event: %w", err)
		} else {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("feed consumer status=%d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
		}

		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 200 * time.Millisecond):
		}
	}

	return fmt.Errorf("publish change event dedup_id=%s: %w", event.DedupID, lastErr)
}
