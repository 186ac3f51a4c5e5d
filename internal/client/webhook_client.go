package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"didcom/service-report/internal/models"

	"go.uber.org/zap"
)

// ContentType is sent with every webhook post. Spreadsheet script endpoints
// accept text/plain without a CORS preflight, so the JSON goes as plain text.
const ContentType = "text/plain;charset=utf-8"

// maxErrorBody caps how much of a failed response is kept in the error
const maxErrorBody = 4096

// WebhookClient posts report payloads to spreadsheet webhooks
type WebhookClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookClient creates a webhook client. A zero timeout means the
// request runs until the transport resolves or fails.
func NewWebhookClient(timeout time.Duration, logger *zap.Logger) *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts the payload and expects a 2xx response. Any other status is
// returned as a *WebhookError carrying the response body.
func (c *WebhookClient) Send(ctx context.Context, url string, payload models.WebhookPayload) error {
	req, err := c.newRequest(ctx, url, payload)
	if err != nil {
		return err
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Failed to send report",
			zap.Error(err),
			zap.Int("equipment_count", len(payload.Equipment)),
			zap.Duration("duration", duration),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Info("Report sent successfully",
			zap.Int("equipment_count", len(payload.Equipment)),
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", duration),
		)
		return nil
	}

	c.logger.Error("Webhook rejected report",
		zap.Int("status_code", resp.StatusCode),
		zap.String("response", string(body)),
		zap.Duration("duration", duration),
	)
	return &WebhookError{StatusCode: resp.StatusCode, Body: string(body)}
}

// SendOpaque posts the payload without looking at the response. It only
// fails when the request itself could not be made, so a nil error does not
// mean the webhook accepted the report.
func (c *WebhookClient) SendOpaque(ctx context.Context, url string, payload models.WebhookPayload) error {
	req, err := c.newRequest(ctx, url, payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Opaque send failed",
			zap.Error(err),
			zap.Int("equipment_count", len(payload.Equipment)),
		)
		return fmt.Errorf("opaque request failed: %w", err)
	}
	// Drain so the connection can be reused; status and body are deliberately unread.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Warn("Report sent without delivery confirmation",
		zap.Int("equipment_count", len(payload.Equipment)),
	)
	return nil
}

func (c *WebhookClient) newRequest(ctx context.Context, url string, payload models.WebhookPayload) (*http.Request, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)
	return req, nil
}

// WebhookError is a non-2xx answer from the webhook
type WebhookError struct {
	StatusCode int
	Body       string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.StatusCode, e.Body)
}
