package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

const maxReplySize = 64 << 10

// WebhookNotifier posts a formatted card to a single chat webhook.
type WebhookNotifier struct {
	url       string
	secret    string
	formatter Formatter
	client    *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewWebhookNotifier creates a webhook notifier.
// If secret is non-empty, requests are signed with HMAC-SHA256.
func NewWebhookNotifier(url, secret string, formatter Formatter, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:       url,
		secret:    secret,
		formatter: formatter,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

func (w *WebhookNotifier) Name() string { return "webhook:" + w.formatter.Name() }

// Send posts batch. A notifier without a URL logs and returns nil.
func (w *WebhookNotifier) Send(ctx context.Context, batch []model.Pool) error {
	if w.url == "" {
		w.logger.Warn("webhook url not configured, skipping notification", "pools", len(batch))
		return nil
	}
	if len(batch) == 0 {
		return nil
	}

	body, err := json.Marshal(w.formatter.Payload(batch, w.now()))
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %w", model.ErrNotify, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", model.ErrNotify, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pool-watch/1.0")

	if w.secret != "" {
		sig := computeHMAC(body, []byte(w.secret))
		req.Header.Set("X-Signature-256", "sha256="+sig)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send webhook: %w", model.ErrNotify, err)
	}
	defer resp.Body.Close()
	reply, _ := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned status %d", model.ErrNotify, resp.StatusCode)
	}
	if rc, ok := w.formatter.(ResponseChecker); ok {
		if err := rc.CheckResponse(reply); err != nil {
			return fmt.Errorf("%w: webhook rejected message: %w", model.ErrNotify, err)
		}
	}

	w.logger.Info("notification sent", "notifier", w.Name(), "pools", len(batch))
	return nil
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
