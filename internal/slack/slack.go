// Package slack posts digest chunks to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/maralert/internal/logger"
	"github.com/deusflow/maralert/internal/retry"
)

const maxErrorBody = 400

type Client struct {
	webhookURL string
	httpClient *http.Client
}

func New(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Deliver posts one text chunk, retrying transient failures with backoff.
// A still-failing delivery is the one error the pipeline treats as fatal:
// silently dropping an alert would mean it is never seen.
func (c *Client) Deliver(ctx context.Context, text string) error {
	cfg := retry.Config{MaxAttempts: 3, Delay: time.Second, Backoff: true}
	err := retry.WithRetry(ctx, cfg, func() error {
		return c.post(ctx, text)
	})
	if err != nil {
		return fmt.Errorf("slack delivery: %w", err)
	}
	logger.Info("chunk delivered to Slack", "chars", len(text))
	return nil
}

func (c *Client) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook error %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
