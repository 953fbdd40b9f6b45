// Package notify posts a best-effort checkout notification to an external
// messaging webhook.
//
// Notifications are strictly fire-and-forget: they run after the buyer's
// redirect is already decided, every failure is swallowed after a log
// line, and nothing is ever retried.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"checkout-bridge/internal/model"
)

// Notifier announces a started checkout. Implementations must never
// surface failures to the caller.
type Notifier interface {
	CheckoutStarted(ctx context.Context, items []model.MatchedItem)
}

// Webhook posts a JSON {content} payload, the shape Discord-compatible
// webhooks accept.
type Webhook struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

// NewWebhook creates a webhook notifier. An empty URL disables
// notifications entirely (a Noop is returned).
func NewWebhook(url string, logger *slog.Logger) Notifier {
	if url == "" {
		return Noop{}
	}
	return &Webhook{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        url,
		logger:     logger,
	}
}

// CheckoutStarted posts the summary message. Any failure is logged and
// discarded.
func (w *Webhook) CheckoutStarted(ctx context.Context, items []model.MatchedItem) {
	payload, err := json.Marshal(map[string]string{
		"content": formatSummary(items),
	})
	if err != nil {
		w.logger.Warn("notification payload marshal failed", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		w.logger.Warn("notification request failed", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Warn("notification post failed", slog.String("error", err.Error()))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		w.logger.Warn("notification rejected", slog.Int("status", resp.StatusCode))
	}
}

// formatSummary renders the human-readable product list.
func formatSummary(items []model.MatchedItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (x%d)", item.ProductTitle, item.Quantity))
	}
	return fmt.Sprintf("🛒 **Checkout Started**\nItems: %d\n\n%s",
		len(items), strings.Join(lines, "\n"))
}

// Noop is the disabled notifier.
type Noop struct{}

// CheckoutStarted does nothing.
func (Noop) CheckoutStarted(context.Context, []model.MatchedItem) {}
