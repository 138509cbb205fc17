package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// WebhookDispatcher POSTs each combined notification as JSON to a single
// configured endpoint. Any 2xx response counts as delivered.
type WebhookDispatcher struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookDispatcher creates a webhook dispatcher for the given endpoint.
func NewWebhookDispatcher(endpoint string, logger *slog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: dispatchTimeout,
		},
		logger: logger,
	}
}

// Dispatch POSTs the notification to the endpoint.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook post: unexpected status %d", resp.StatusCode)
	}

	d.logger.Info("Notification posted",
		"endpoint", d.endpoint, "kind", string(n.Kind), "items", len(n.Items))
	return nil
}
